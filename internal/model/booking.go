package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// facility_bookings
//
// A booking is created exactly once by admission and is never updated
// afterwards, except for the QR code reference back-filled right after
// creation.
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Плательщик. UserID приходит из JWT (sub).
	UserID          string `gorm:"type:varchar(64);not null;index"`
	UserName        string `gorm:"type:varchar(255)"`
	UserEmail       string `gorm:"type:varchar(255)"`
	UserPhoneNumber string `gorm:"type:varchar(32)"`

	CourtNumber string `gorm:"type:varchar(32);not null;index:idx_facility_bookings_key,priority:1"`
	SportName   string `gorm:"type:varchar(64);not null;index:idx_facility_bookings_key,priority:2"`
	// UTC midnight of the booked calendar day.
	Date time.Time `gorm:"not null;index:idx_facility_bookings_key,priority:3"`

	TimeSlots datatypes.JSONSlice[string] `gorm:"not null"`

	// CourtPrice is the unit (per-slot) price at booking time.
	CourtPrice int64 `gorm:"not null"`
	TotalHours int   `gorm:"not null"`
	TotalPrice int64 `gorm:"not null"`

	Receipt string `gorm:"type:text"`
	QRCode  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Booking) TableName() string { return "facility_bookings" }

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// booking_slots: one claim row per booked slot. The unique index on
// (court, sport, date, slot) makes a second claim of the same slot fail
// inside the database even if two admissions race past the lock.
type BookingSlot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index"`

	CourtNumber string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_booking_slots_claim,priority:1"`
	SportName   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_booking_slots_claim,priority:2;index:idx_booking_slots_sport_day,priority:1"`
	Date        time.Time `gorm:"not null;uniqueIndex:idx_booking_slots_claim,priority:3;index:idx_booking_slots_sport_day,priority:2"`
	Slot        string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_booking_slots_claim,priority:4"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *BookingSlot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Claims expands a booking into its slot claim rows.
func (b *Booking) Claims() []BookingSlot {
	out := make([]BookingSlot, 0, len(b.TimeSlots))
	for _, s := range b.TimeSlots {
		out = append(out, BookingSlot{
			BookingID:   b.ID,
			CourtNumber: b.CourtNumber,
			SportName:   b.SportName,
			Date:        b.Date,
			Slot:        s,
		})
	}
	return out
}
