package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
	"github.com/Chamindu77/SFBS-Backend/internal/repository"
)

// AvailabilityResolver answers "what is still free" queries. It never takes
// the admission lock, so a slot reported free may be taken a moment later;
// Admit re-checks.
type AvailabilityResolver struct {
	catalog    calendar.Catalog
	bookings   repository.BookingRepository
	facilities repository.FacilityRepository
	tracer     trace.Tracer
}

func NewAvailabilityResolver(
	catalog calendar.Catalog,
	bookings repository.BookingRepository,
	facilities repository.FacilityRepository,
) *AvailabilityResolver {
	return &AvailabilityResolver{
		catalog:    catalog,
		bookings:   bookings,
		facilities: facilities,
		tracer:     tracer(),
	}
}

// AvailableSlots returns the catalog minus every slot already booked for the
// court on that UTC day, in catalog order. An empty result means fully booked.
func (r *AvailabilityResolver) AvailableSlots(ctx context.Context, courtNumber, sportName string, date time.Time) ([]string, error) {
	courtNumber = strings.TrimSpace(courtNumber)
	sportName = strings.TrimSpace(sportName)

	var missing []string
	if courtNumber == "" {
		missing = append(missing, "courtNumber")
	}
	if sportName == "" {
		missing = append(missing, "sportName")
	}
	if date.IsZero() {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return nil, missingField(missing...)
	}

	ctx, span := r.tracer.Start(ctx, "availability.slots", trace.WithAttributes(
		attribute.String("court", courtNumber),
		attribute.String("sport", sportName),
		attribute.String("date", calendar.FormatDate(date)),
	))
	defer span.End()

	from, to := calendar.DayBounds(date)
	existing, err := r.bookings.FindByKey(ctx, courtNumber, sportName, from, to)
	if err != nil {
		span.RecordError(err)
		return nil, internal("load bookings", err)
	}

	free := r.catalog.Subtract(bookedSlots(existing))
	span.SetAttributes(attribute.Int("free", len(free)))
	return free, nil
}

// AvailableFacilities returns the active courts of sportName that have no
// booking holding slot on that UTC day. NotFound when no active court offers
// the sport at all; an empty slice when every court is taken.
func (r *AvailabilityResolver) AvailableFacilities(ctx context.Context, sportName string, date time.Time, slot string) ([]model.Facility, error) {
	sportName = strings.TrimSpace(sportName)
	slot = strings.TrimSpace(slot)

	var missing []string
	if sportName == "" {
		missing = append(missing, "sportName")
	}
	if date.IsZero() {
		missing = append(missing, "date")
	}
	if slot == "" {
		missing = append(missing, "timeSlot")
	}
	if len(missing) > 0 {
		return nil, missingField(missing...)
	}
	if !r.catalog.IsValidSlot(slot) {
		return nil, invalidSlot([]string{slot})
	}

	ctx, span := r.tracer.Start(ctx, "availability.facilities", trace.WithAttributes(
		attribute.String("sport", sportName),
		attribute.String("slot", slot),
		attribute.String("date", calendar.FormatDate(date)),
	))
	defer span.End()

	courts, err := r.facilities.List(ctx, sportName, true)
	if err != nil {
		span.RecordError(err)
		return nil, internal("list facilities", err)
	}
	if len(courts) == 0 {
		return nil, notFound("facilities for " + sportName)
	}

	from, to := calendar.DayBounds(date)
	booked, err := r.bookings.BookedCourts(ctx, sportName, slot, from, to)
	if err != nil {
		span.RecordError(err)
		return nil, internal("load booked courts", err)
	}
	taken := make(map[string]struct{}, len(booked))
	for _, c := range booked {
		taken[c] = struct{}{}
	}

	free := make([]model.Facility, 0, len(courts))
	for _, f := range courts {
		if _, ok := taken[f.CourtNumber]; !ok {
			free = append(free, f)
		}
	}
	return free, nil
}

// bookedSlots is the union of the slot sets of bookings.
func bookedSlots(bookings []model.Booking) []string {
	var out []string
	for _, b := range bookings {
		out = append(out, b.TimeSlots...)
	}
	return out
}
