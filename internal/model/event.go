package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeBookingCreated  EventType = "booking_created"
	EventTypeQRCodeIssued    EventType = "qr_code_issued"
	EventTypeFacilityChanged EventType = "facility_changed"
)

// events: события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	UserID     string     `gorm:"type:varchar(64);index"`
	BookingID  *uuid.UUID `gorm:"type:uuid;index"`
	FacilityID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSON

	// Навигационные поля
	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
