package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Chamindu77/SFBS-Backend/internal/artifact"
	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/db/dbtest"
	"github.com/Chamindu77/SFBS-Backend/internal/lock"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
	"github.com/Chamindu77/SFBS-Backend/internal/notify"
	"github.com/Chamindu77/SFBS-Backend/internal/repository"
)

var (
	// "сейчас" во всех тестах
	testNow = time.Date(2030, 5, 10, 12, 0, 0, 0, time.UTC)
	// день D из сценариев
	dayD = time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC)
)

const (
	s0800 = "08:00 - 09:00"
	s0900 = "09:00 - 10:00"
	s1000 = "10:00 - 11:00"
	s1100 = "11:00 - 12:00"
)

type recordingNotifier struct {
	mu   sync.Mutex
	to   []string
	sent []notify.Summary
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, to string, s notify.Summary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.to = append(n.to, to)
	n.sent = append(n.sent, s)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type failingQR struct{}

func (failingQR) Issue(context.Context, artifact.QRPayload) (string, error) {
	return "", errors.New("qr renderer down")
}

type env struct {
	bookings   *repository.GormBookingRepository
	facilities *repository.GormFacilityRepository
	catalog    calendar.Catalog
	store      *artifact.LocalStore
	notifier   *recordingNotifier

	validator   *Validator
	resolver    *AvailabilityResolver
	admitter    *Admitter
	svc         *BookingService
	facilitySvc *FacilityService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb := dbtest.Open(t)
	store, err := artifact.NewLocalStore(t.TempDir(), "http://files")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	e := &env{
		bookings:   repository.NewGormBookingRepository(gdb),
		facilities: repository.NewGormFacilityRepository(gdb),
		catalog:    calendar.DefaultCatalog(),
		store:      store,
		notifier:   &recordingNotifier{},
	}
	e.validator = NewValidator(e.catalog, FixedClock{T: testNow})
	e.resolver = NewAvailabilityResolver(e.catalog, e.bookings, e.facilities)
	e.admitter = NewAdmitter(e.bookings, lock.NewMemoryLocker(), artifact.NewQRGenerator(store), e.notifier)
	e.svc = NewBookingService(e.validator, e.resolver, e.admitter, e.bookings, e.facilities, store)
	e.facilitySvc = NewFacilityService(e.facilities, store)
	return e
}

func (e *env) addCourt(t *testing.T, court, sport string, price int64) *model.Facility {
	t.Helper()
	f := &model.Facility{CourtNumber: court, SportName: sport, CourtPrice: price}
	if err := e.facilities.Create(context.Background(), f); err != nil {
		t.Fatalf("create facility %s: %v", court, err)
	}
	return f
}

func validated(court, sport string, day time.Time, slots ...string) ValidatedRequest {
	return ValidatedRequest{
		CourtNumber: court,
		SportName:   sport,
		Date:        day,
		TimeSlots:   slots,
		Payer:       Payer{UserID: "u-1", Name: "Nimal", Email: "nimal@example.com"},
		Receipt:     "http://files/facility_receipts/r.png",
	}
}

func request(court, sport string, day time.Time, slots ...string) BookingRequest {
	return BookingRequest{
		CourtNumber: court,
		SportName:   sport,
		Date:        day,
		TimeSlots:   slots,
		Payer:       Payer{UserID: "u-1", Name: "Nimal", Email: "nimal@example.com"},
	}
}

func wantCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected service error %s, got %v", code, err)
	}
	if se.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, se.Code, err)
	}
	return se
}

func sameSlots(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
