package service

import (
	"strings"
	"time"

	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
)

// Payer is the contact data of the user making a booking.
type Payer struct {
	UserID      string
	Name        string
	Email       string
	PhoneNumber string
}

// BookingRequest is an unvalidated booking as received from a transport.
// A zero Date means the date was not supplied.
type BookingRequest struct {
	CourtNumber string
	SportName   string
	Date        time.Time
	TimeSlots   []string
	Payer       Payer
	Receipt     string
}

// ValidatedRequest has passed Validate: Date is a UTC midnight not before
// today and TimeSlots are distinct catalog labels in catalog order.
type ValidatedRequest struct {
	CourtNumber string
	SportName   string
	Date        time.Time
	TimeSlots   []string
	Payer       Payer
	Receipt     string
}

type Validator struct {
	catalog calendar.Catalog
	clock   Clock
}

func NewValidator(catalog calendar.Catalog, clock Clock) *Validator {
	if clock == nil {
		clock = RealClock{}
	}
	return &Validator{catalog: catalog, clock: clock}
}

// Validate runs the checks in order and stops at the first failure:
// missing fields, unknown or repeated slots, past date.
func (v *Validator) Validate(req BookingRequest) (ValidatedRequest, error) {
	court := strings.TrimSpace(req.CourtNumber)
	sport := strings.TrimSpace(req.SportName)

	slots := make([]string, 0, len(req.TimeSlots))
	for _, s := range req.TimeSlots {
		slots = append(slots, strings.TrimSpace(s))
	}

	var missing []string
	if court == "" {
		missing = append(missing, "courtNumber")
	}
	if sport == "" {
		missing = append(missing, "sportName")
	}
	if req.Date.IsZero() {
		missing = append(missing, "date")
	}
	if len(slots) == 0 {
		missing = append(missing, "timeSlots")
	}
	if len(missing) > 0 {
		return ValidatedRequest{}, missingField(missing...)
	}

	if bad := v.catalog.Invalid(slots); len(bad) > 0 {
		return ValidatedRequest{}, invalidSlot(bad)
	}
	if dups := duplicates(slots); len(dups) > 0 {
		return ValidatedRequest{}, &Error{Code: CodeInvalidSlot, Msg: "duplicate time slots", Slots: dups}
	}

	day := calendar.DateOnly(req.Date)
	if day.Before(calendar.DateOnly(v.clock.Now())) {
		return ValidatedRequest{}, ErrPastDate
	}

	payer := req.Payer
	payer.Name = strings.TrimSpace(payer.Name)
	payer.Email = strings.TrimSpace(payer.Email)
	payer.PhoneNumber = strings.TrimSpace(payer.PhoneNumber)

	return ValidatedRequest{
		CourtNumber: court,
		SportName:   sport,
		Date:        day,
		TimeSlots:   v.catalog.Sort(slots),
		Payer:       payer,
		Receipt:     req.Receipt,
	}, nil
}

// duplicates returns every label seen more than once, in first-repeat order.
func duplicates(labels []string) []string {
	seen := make(map[string]int, len(labels))
	var out []string
	for _, l := range labels {
		seen[l]++
		if seen[l] == 2 {
			out = append(out, l)
		}
	}
	return out
}
