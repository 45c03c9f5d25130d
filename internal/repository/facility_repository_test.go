package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/Chamindu77/SFBS-Backend/internal/db/dbtest"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
)

func TestFacilityRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := NewGormFacilityRepository(gdb)

	f := &model.Facility{CourtNumber: "C1", SportName: "Tennis", SportCategory: "Outdoor", CourtPrice: 1500}
	if err := repo.Create(ctx, f); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !f.IsActive {
		t.Fatalf("new facility must be active")
	}

	dup := &model.Facility{CourtNumber: "C1", SportName: "Tennis", CourtPrice: 10}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrFacilityExists) {
		t.Fatalf("expected ErrFacilityExists, got %v", err)
	}

	got, err := repo.GetByCourt(ctx, "C1", "Tennis")
	if err != nil {
		t.Fatalf("GetByCourt: %v", err)
	}
	if got.ID != f.ID || got.CourtPrice != 1500 {
		t.Fatalf("unexpected facility %+v", got)
	}

	// нулевые поля не затираются
	if err := repo.Update(ctx, &model.Facility{ID: f.ID, CourtPrice: 2000}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByID(ctx, f.ID.String())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CourtPrice != 2000 || got.SportCategory != "Outdoor" {
		t.Fatalf("partial update broken: %+v", got)
	}

	if err := repo.SetActive(ctx, f.ID.String(), false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	active, err := repo.List(ctx, "Tennis", true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("inactive court listed as active: %+v", active)
	}
	all, err := repo.List(ctx, "", false)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 facility, got %d", len(all))
	}

	if err := repo.Delete(ctx, f.ID.String()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, f.ID.String()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second Delete: expected ErrRecordNotFound, got %v", err)
	}
	if err := repo.SetActive(ctx, "not-a-uuid", true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("SetActive with bad id: expected ErrRecordNotFound, got %v", err)
	}

	// created, updated, set_active, deleted; неудачное создание откатилось
	var events int64
	if err := gdb.Model(&model.Event{}).
		Where("event_type = ? AND facility_id = ?", model.EventTypeFacilityChanged, f.ID).
		Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 4 {
		t.Fatalf("expected 4 facility_changed events, got %d", events)
	}
}
