package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/Chamindu77/SFBS-Backend/internal/artifact"
	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/lock"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
	"github.com/Chamindu77/SFBS-Backend/internal/notify"
	"github.com/Chamindu77/SFBS-Backend/internal/repository"
)

const defaultNotifyTimeout = 30 * time.Second

// QRIssuer renders a booking QR code and returns its reference.
type QRIssuer interface {
	Issue(ctx context.Context, p artifact.QRPayload) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, to string, s notify.Summary) error
}

func tracer() trace.Tracer {
	return otel.Tracer("github.com/Chamindu77/SFBS-Backend/internal/service")
}

// Admitter commits validated bookings. Check and insert run under a lock
// per (court, sport, day); the unique slot-claim index is the last guard.
type Admitter struct {
	bookings repository.BookingRepository
	locker   lock.Locker
	qr       QRIssuer
	notifier Notifier
	tracer   trace.Tracer

	notifyTimeout time.Duration
	inflight      sync.WaitGroup
}

// NewAdmitter wires the admitter. qr and notifier may be nil.
func NewAdmitter(
	bookings repository.BookingRepository,
	locker lock.Locker,
	qr QRIssuer,
	notifier Notifier,
) *Admitter {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	return &Admitter{
		bookings:      bookings,
		locker:        locker,
		qr:            qr,
		notifier:      notifier,
		tracer:        tracer(),
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Admit persists the booking if none of its slots is taken, rejecting the
// whole request with SlotConflict otherwise. QR generation and the
// confirmation run after the commit and never undo it.
func (a *Admitter) Admit(ctx context.Context, req ValidatedRequest, unitPrice int64) (*model.Booking, error) {
	ctx, span := a.tracer.Start(ctx, "booking.admit", trace.WithAttributes(
		attribute.String("court", req.CourtNumber),
		attribute.String("sport", req.SportName),
		attribute.String("date", calendar.FormatDate(req.Date)),
		attribute.StringSlice("slots", req.TimeSlots),
	))
	defer span.End()

	key := lock.Key(req.CourtNumber, req.SportName, req.Date)
	unlock, err := a.locker.Lock(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock")
		return nil, internal("acquire booking lock", err)
	}
	booking, err := a.admitLocked(ctx, req, unitPrice)
	unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.id", booking.ID.String()))

	a.issueQR(ctx, booking)
	a.dispatch(ctx, booking)
	return booking, nil
}

func (a *Admitter) admitLocked(ctx context.Context, req ValidatedRequest, unitPrice int64) (*model.Booking, error) {
	from, to := calendar.DayBounds(req.Date)
	existing, err := a.bookings.FindByKey(ctx, req.CourtNumber, req.SportName, from, to)
	if err != nil {
		return nil, internal("load bookings", err)
	}
	if overlap := overlapping(existing, req.TimeSlots); len(overlap) > 0 {
		return nil, slotConflict(overlap)
	}

	hours := len(req.TimeSlots)
	booking := &model.Booking{
		UserID:          req.Payer.UserID,
		UserName:        req.Payer.Name,
		UserEmail:       req.Payer.Email,
		UserPhoneNumber: req.Payer.PhoneNumber,
		CourtNumber:     req.CourtNumber,
		SportName:       req.SportName,
		Date:            req.Date,
		TimeSlots:       datatypes.JSONSlice[string](append([]string(nil), req.TimeSlots...)),
		CourtPrice:      unitPrice,
		TotalHours:      hours,
		TotalPrice:      int64(hours) * unitPrice,
		Receipt:         req.Receipt,
	}

	if err := a.bookings.Create(ctx, booking); err != nil {
		if !errors.Is(err, repository.ErrSlotTaken) {
			return nil, internal("create booking", err)
		}
		// другой инстанс успел раньше; перечитываем, чтобы назвать слоты
		existing, ferr := a.bookings.FindByKey(ctx, req.CourtNumber, req.SportName, from, to)
		if ferr == nil {
			if overlap := overlapping(existing, req.TimeSlots); len(overlap) > 0 {
				return nil, slotConflict(overlap)
			}
		}
		return nil, slotConflict(req.TimeSlots)
	}
	return booking, nil
}

func (a *Admitter) issueQR(ctx context.Context, b *model.Booking) {
	if a.qr == nil {
		return
	}
	ref, err := a.qr.Issue(ctx, qrPayload(b))
	if err != nil {
		log.Printf("[booking] qr for %s: %v", b.ID, err)
		return
	}
	if err := a.bookings.SetQRCode(ctx, b.ID, ref); err != nil {
		log.Printf("[booking] save qr for %s: %v", b.ID, err)
		return
	}
	b.QRCode = ref
}

// dispatch sends the confirmation in the background. It outlives the
// request context but not notifyTimeout.
func (a *Admitter) dispatch(ctx context.Context, b *model.Booking) {
	if a.notifier == nil || b.UserEmail == "" {
		return
	}
	to, summary := b.UserEmail, summaryOf(b)

	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.notifyTimeout)
		defer cancel()
		if err := a.notifier.Notify(nctx, to, summary); err != nil {
			log.Printf("[booking] notify %s about %s: %v", to, summary.BookingID, err)
		}
	}()
}

// Wait blocks until every background confirmation has finished.
func (a *Admitter) Wait() {
	a.inflight.Wait()
}

// overlapping returns the requested slots already held by existing bookings,
// in request order.
func overlapping(existing []model.Booking, requested []string) []string {
	occupied := make(map[string]struct{})
	for _, s := range bookedSlots(existing) {
		occupied[s] = struct{}{}
	}
	var out []string
	for _, s := range requested {
		if _, ok := occupied[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func qrPayload(b *model.Booking) artifact.QRPayload {
	return artifact.QRPayload{
		BookingID:   b.ID.String(),
		UserName:    b.UserName,
		UserEmail:   b.UserEmail,
		SportName:   b.SportName,
		CourtNumber: b.CourtNumber,
		Date:        calendar.FormatDate(b.Date),
		TimeSlots:   append([]string(nil), b.TimeSlots...),
		TotalHours:  b.TotalHours,
		CourtPrice:  b.CourtPrice,
		TotalPrice:  b.TotalPrice,
	}
}

func summaryOf(b *model.Booking) notify.Summary {
	return notify.Summary{
		BookingID:   b.ID.String(),
		UserName:    b.UserName,
		SportName:   b.SportName,
		CourtNumber: b.CourtNumber,
		Date:        calendar.FormatDate(b.Date),
		TimeSlots:   append([]string(nil), b.TimeSlots...),
		TotalHours:  b.TotalHours,
		TotalPrice:  b.TotalPrice,
		Receipt:     b.Receipt,
		QRCode:      b.QRCode,
	}
}
