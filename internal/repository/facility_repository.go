package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Chamindu77/SFBS-Backend/internal/model"
)

// ErrFacilityExists is returned when (court number, sport) is already registered.
var ErrFacilityExists = errors.New("facility already exists")

type FacilityRepository interface {
	Create(ctx context.Context, f *model.Facility) error
	GetByID(ctx context.Context, id string) (*model.Facility, error)
	// Корт по номеру и виду спорта.
	GetByCourt(ctx context.Context, courtNumber, sportName string) (*model.Facility, error)
	// Пустой sportName: все виды спорта.
	List(ctx context.Context, sportName string, onlyActive bool) ([]model.Facility, error)
	// Обновляет только ненулевые поля.
	Update(ctx context.Context, f *model.Facility) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type GormFacilityRepository struct {
	db *gorm.DB
}

func NewGormFacilityRepository(db *gorm.DB) *GormFacilityRepository {
	return &GormFacilityRepository{db: db}
}

func (r *GormFacilityRepository) Create(ctx context.Context, f *model.Facility) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Create(f).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: court %s (%s)", ErrFacilityExists, f.CourtNumber, f.SportName)
		}
		if err != nil {
			return err
		}
		return audit(tx, f.ID, "created", nil)
	})
}

func (r *GormFacilityRepository) GetByID(ctx context.Context, id string) (*model.Facility, error) {
	var f model.Facility
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *GormFacilityRepository) GetByCourt(ctx context.Context, courtNumber, sportName string) (*model.Facility, error) {
	var f model.Facility
	err := r.db.WithContext(ctx).
		Where("court_number = ? AND sport_name = ?", courtNumber, sportName).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *GormFacilityRepository) List(ctx context.Context, sportName string, onlyActive bool) ([]model.Facility, error) {
	q := r.db.WithContext(ctx).Model(&model.Facility{})
	if sportName != "" {
		q = q.Where("sport_name = ?", sportName)
	}
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}

	var out []model.Facility
	if err := q.Order("sport_name ASC, court_number ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormFacilityRepository) Update(ctx context.Context, f *model.Facility) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Facility{}).
			Where("id = ?", f.ID).
			Updates(f)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: court %s (%s)", ErrFacilityExists, f.CourtNumber, f.SportName)
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return audit(tx, f.ID, "updated", nil)
	})
}

func (r *GormFacilityRepository) SetActive(ctx context.Context, id string, active bool) error {
	fid, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Facility{}).
			Where("id = ?", fid).
			Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return audit(tx, fid, "set_active", map[string]any{"isActive": active})
	})
}

func (r *GormFacilityRepository) Delete(ctx context.Context, id string) error {
	fid, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Facility{}, "id = ?", fid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return audit(tx, fid, "deleted", nil)
	})
}

// audit пишет событие facility_changed в той же транзакции.
func audit(tx *gorm.DB, facilityID uuid.UUID, action string, extra map[string]any) error {
	details := map[string]any{"action": action}
	for k, v := range extra {
		details[k] = v
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return tx.Create(&model.Event{
		EventType:  model.EventTypeFacilityChanged,
		FacilityID: &facilityID,
		Details:    datatypes.JSON(raw),
	}).Error
}
