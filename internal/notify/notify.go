// Package notify delivers booking confirmations. Every Notifier is
// best-effort: callers log the error and move on.
package notify

import (
	"context"
	"errors"
	"log"
)

// RKBookingCreated is the routing key of confirmation messages on the bus.
const RKBookingCreated = "booking.created"

// Summary is what a user is told about an admitted booking.
type Summary struct {
	BookingID   string   `json:"bookingId"`
	UserName    string   `json:"userName"`
	SportName   string   `json:"sportName"`
	CourtNumber string   `json:"courtNumber"`
	Date        string   `json:"date"`
	TimeSlots   []string `json:"timeSlots"`
	TotalHours  int      `json:"totalHours"`
	TotalPrice  int64    `json:"totalPrice"`
	Receipt     string   `json:"receipt"`
	QRCode      string   `json:"qrCode"`
}

// Message is the bus envelope for a confirmation.
type Message struct {
	To      string  `json:"to"`
	Summary Summary `json:"summary"`
}

type Notifier interface {
	Notify(ctx context.Context, to string, s Summary) error
}

// LogNotifier only writes the confirmation to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, to string, s Summary) error {
	log.Printf("[notify] booking %s for %s: court=%s sport=%s date=%s slots=%v total=%d",
		s.BookingID, to, s.CourtNumber, s.SportName, s.Date, s.TimeSlots, s.TotalPrice)
	return nil
}

// Multi fans a confirmation out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, to string, s Summary) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, to, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
