package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Chamindu77/SFBS-Backend/internal/model"
)

// ErrSlotTaken is returned by Create when a slot claim of the booking
// already exists for the same court, sport and day.
var ErrSlotTaken = errors.New("slot already taken")

type BookingRepository interface {
	// Брони корта за день: date в [from, to].
	FindByKey(ctx context.Context, courtNumber, sportName string, from, to time.Time) ([]model.Booking, error)
	// Корты вида спорта, у которых занят слот в этот день.
	BookedCourts(ctx context.Context, sportName, slot string, from, to time.Time) ([]string, error)
	// Создать бронирование вместе с заявками на слоты и событием аудита.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить бронирование по ID.
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	// Все бронирования, новые первыми.
	List(ctx context.Context, limit, offset int) ([]model.Booking, int64, error)
	// Бронирования пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Booking, int64, error)
	// Записать ссылку на QR-код.
	SetQRCode(ctx context.Context, id uuid.UUID, ref string) error
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) FindByKey(
	ctx context.Context,
	courtNumber, sportName string,
	from, to time.Time,
) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("court_number = ? AND sport_name = ?", courtNumber, sportName).
		Where("date >= ? AND date <= ?", from, to).
		Order("created_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) BookedCourts(
	ctx context.Context,
	sportName, slot string,
	from, to time.Time,
) ([]string, error) {
	var courts []string
	err := r.db.WithContext(ctx).
		Model(&model.BookingSlot{}).
		Where("sport_name = ? AND slot = ?", sportName, slot).
		Where("date >= ? AND date <= ?", from, to).
		Distinct().
		Pluck("court_number", &courts).Error
	if err != nil {
		return nil, err
	}
	return courts, nil
}

// Create inserts the booking, one claim row per slot and a booking_created
// event in a single transaction. A duplicate claim rolls everything back and
// is reported as ErrSlotTaken.
func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return translateDuplicate(err)
		}

		claims := booking.Claims()
		if len(claims) > 0 {
			if err := tx.Create(&claims).Error; err != nil {
				return translateDuplicate(err)
			}
		}

		details, err := json.Marshal(map[string]any{
			"courtNumber": booking.CourtNumber,
			"sportName":   booking.SportName,
			"date":        booking.Date.Format("2006-01-02"),
			"timeSlots":   []string(booking.TimeSlots),
			"totalPrice":  booking.TotalPrice,
		})
		if err != nil {
			return err
		}
		ev := model.Event{
			EventType: model.EventTypeBookingCreated,
			UserID:    booking.UserID,
			BookingID: &booking.ID,
			Details:   datatypes.JSON(details),
		}
		return tx.Create(&ev).Error
	})
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) List(ctx context.Context, limit, offset int) ([]model.Booking, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&model.Booking{}), limit, offset)
}

func (r *GormBookingRepository) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id = ?", userID)
	return r.list(q, limit, offset)
}

func (r *GormBookingRepository) list(q *gorm.DB, limit, offset int) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *GormBookingRepository) SetQRCode(ctx context.Context, id uuid.UUID, ref string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).
			Where("id = ?", id).
			Update("qr_code", ref)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		details, err := json.Marshal(map[string]string{"qrCode": ref})
		if err != nil {
			return err
		}
		return tx.Create(&model.Event{
			EventType: model.EventTypeQRCodeIssued,
			BookingID: &id,
			Details:   datatypes.JSON(details),
		}).Error
	})
}

func translateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrSlotTaken, err)
	}
	return err
}
