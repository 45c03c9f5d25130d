package handlers

import (
	"time"

	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
)

type bookingDTO struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	UserName        string    `json:"userName"`
	UserEmail       string    `json:"userEmail"`
	UserPhoneNumber string    `json:"userPhoneNumber,omitempty"`
	CourtNumber     string    `json:"courtNumber"`
	SportName       string    `json:"sportName"`
	Date            string    `json:"date"`
	TimeSlots       []string  `json:"timeSlots"`
	CourtPrice      int64     `json:"courtPrice"`
	TotalHours      int       `json:"totalHours"`
	TotalPrice      int64     `json:"totalPrice"`
	Receipt         string    `json:"receipt"`
	QRCode          string    `json:"qrCode,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toBookingDTO(b *model.Booking) bookingDTO {
	return bookingDTO{
		ID:              b.ID.String(),
		UserID:          b.UserID,
		UserName:        b.UserName,
		UserEmail:       b.UserEmail,
		UserPhoneNumber: b.UserPhoneNumber,
		CourtNumber:     b.CourtNumber,
		SportName:       b.SportName,
		Date:            calendar.FormatDate(b.Date),
		TimeSlots:       append([]string{}, b.TimeSlots...),
		CourtPrice:      b.CourtPrice,
		TotalHours:      b.TotalHours,
		TotalPrice:      b.TotalPrice,
		Receipt:         b.Receipt,
		QRCode:          b.QRCode,
		CreatedAt:       b.CreatedAt,
	}
}

func toBookingPage(p calendar.Page[model.Booking]) calendar.Page[bookingDTO] {
	items := make([]bookingDTO, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, toBookingDTO(&p.Items[i]))
	}
	return calendar.Page[bookingDTO]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}

type facilityDTO struct {
	ID            string    `json:"id"`
	CourtNumber   string    `json:"courtNumber"`
	SportName     string    `json:"sportName"`
	SportCategory string    `json:"sportCategory,omitempty"`
	CourtPrice    int64     `json:"courtPrice"`
	Image         string    `json:"image,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toFacilityDTO(f *model.Facility) facilityDTO {
	return facilityDTO{
		ID:            f.ID.String(),
		CourtNumber:   f.CourtNumber,
		SportName:     f.SportName,
		SportCategory: f.SportCategory,
		CourtPrice:    f.CourtPrice,
		Image:         f.Image,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func toFacilityDTOs(fs []model.Facility) []facilityDTO {
	out := make([]facilityDTO, 0, len(fs))
	for i := range fs {
		out = append(out, toFacilityDTO(&fs[i]))
	}
	return out
}
