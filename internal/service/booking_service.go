package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Chamindu77/SFBS-Backend/internal/artifact"
	"github.com/Chamindu77/SFBS-Backend/internal/calendar"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
	"github.com/Chamindu77/SFBS-Backend/internal/repository"
)

// BlobStore keeps receipts, facility images and QR codes.
type BlobStore interface {
	Put(ctx context.Context, folder, name string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// Upload is a file received from the client.
type Upload struct {
	Filename string
	Data     []byte
}

// BookingService is the entry point of the transports: validate, look up the
// court price, store the receipt, admit.
type BookingService struct {
	validator  *Validator
	resolver   *AvailabilityResolver
	admitter   *Admitter
	bookings   repository.BookingRepository
	facilities repository.FacilityRepository
	blobs      BlobStore
}

func NewBookingService(
	validator *Validator,
	resolver *AvailabilityResolver,
	admitter *Admitter,
	bookings repository.BookingRepository,
	facilities repository.FacilityRepository,
	blobs BlobStore,
) *BookingService {
	return &BookingService{
		validator:  validator,
		resolver:   resolver,
		admitter:   admitter,
		bookings:   bookings,
		facilities: facilities,
		blobs:      blobs,
	}
}

// Create books req.TimeSlots on the court at the court's current price.
func (s *BookingService) Create(ctx context.Context, req BookingRequest, receipt *Upload) (*model.Booking, error) {
	v, err := s.validator.Validate(req)
	if err != nil {
		return nil, err
	}
	if receipt == nil || len(receipt.Data) == 0 {
		return nil, missingField("receipt")
	}

	facility, err := s.facilities.GetByCourt(ctx, v.CourtNumber, v.SportName)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !facility.IsActive) {
		return nil, notFound(fmt.Sprintf("facility %s (%s)", v.CourtNumber, v.SportName))
	}
	if err != nil {
		return nil, internal("load facility", err)
	}

	name := "receipt-" + uuid.NewString() + strings.ToLower(filepath.Ext(receipt.Filename))
	ref, err := s.blobs.Put(ctx, artifact.FolderReceipts, name, receipt.Data)
	if err != nil {
		return nil, internal("store receipt", err)
	}
	v.Receipt = ref

	booking, err := s.admitter.Admit(ctx, v, facility.CourtPrice)
	if err != nil {
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), ref); derr != nil {
			log.Printf("[booking] drop receipt %s: %v", ref, derr)
		}
		return nil, err
	}
	log.Printf("[booking] admitted %s court=%s sport=%s date=%s slots=%v",
		booking.ID, booking.CourtNumber, booking.SportName, calendar.FormatDate(booking.Date), []string(booking.TimeSlots))
	return booking, nil
}

// Validate exposes the validator to callers that only want the check.
func (s *BookingService) Validate(req BookingRequest) (ValidatedRequest, error) {
	return s.validator.Validate(req)
}

func (s *BookingService) Availability() *AvailabilityResolver { return s.resolver }

func (s *BookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("booking")
	}
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("booking")
	}
	if err != nil {
		return nil, internal("load booking", err)
	}
	return b, nil
}

func (s *BookingService) List(ctx context.Context, page, pageSize int) (calendar.Page[model.Booking], error) {
	page, pageSize, offset := calendar.Normalize(page, pageSize)
	items, total, err := s.bookings.List(ctx, pageSize, offset)
	if err != nil {
		return calendar.Page[model.Booking]{}, internal("list bookings", err)
	}
	return calendar.PageOf(items, page, pageSize, total), nil
}

// ListByUser returns NotFound when the user has no bookings at all.
func (s *BookingService) ListByUser(ctx context.Context, userID string, page, pageSize int) (calendar.Page[model.Booking], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return calendar.Page[model.Booking]{}, missingField("userId")
	}
	page, pageSize, offset := calendar.Normalize(page, pageSize)
	items, total, err := s.bookings.ListByUser(ctx, userID, pageSize, offset)
	if err != nil {
		return calendar.Page[model.Booking]{}, internal("list user bookings", err)
	}
	if total == 0 {
		return calendar.Page[model.Booking]{}, notFound("bookings for user " + userID)
	}
	return calendar.PageOf(items, page, pageSize, total), nil
}

// QRCode returns the PNG of a booking's QR code and a download file name.
func (s *BookingService) QRCode(ctx context.Context, id string) ([]byte, string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if b.QRCode == "" {
		return nil, "", notFound("qr code")
	}
	data, err := s.blobs.Get(ctx, b.QRCode)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, "", notFound("qr code")
	}
	if err != nil {
		return nil, "", internal("load qr code", err)
	}
	return data, fmt.Sprintf("Booking-%s-QRCode.png", b.ID), nil
}
