package service

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Chamindu77/SFBS-Backend/internal/artifact"
	"github.com/Chamindu77/SFBS-Backend/internal/model"
	"github.com/Chamindu77/SFBS-Backend/internal/repository"
)

// FacilityInput carries facility fields. On update, zero values keep the
// stored value.
type FacilityInput struct {
	CourtNumber   string
	SportName     string
	SportCategory string
	CourtPrice    int64
}

type FacilityService struct {
	repo  repository.FacilityRepository
	blobs BlobStore
}

func NewFacilityService(repo repository.FacilityRepository, blobs BlobStore) *FacilityService {
	return &FacilityService{repo: repo, blobs: blobs}
}

func (s *FacilityService) Create(ctx context.Context, in FacilityInput, image *Upload) (*model.Facility, error) {
	in = trimFacility(in)

	var missing []string
	if in.CourtNumber == "" {
		missing = append(missing, "courtNumber")
	}
	if in.SportName == "" {
		missing = append(missing, "sportName")
	}
	if in.CourtPrice == 0 {
		missing = append(missing, "courtPrice")
	}
	if len(missing) > 0 {
		return nil, missingField(missing...)
	}
	if in.CourtPrice < 0 {
		return nil, invalidInput("courtPrice must be positive")
	}

	f := &model.Facility{
		CourtNumber:   in.CourtNumber,
		SportName:     in.SportName,
		SportCategory: in.SportCategory,
		CourtPrice:    in.CourtPrice,
		IsActive:      true,
	}
	if image != nil && len(image.Data) > 0 {
		ref, err := s.putImage(ctx, image)
		if err != nil {
			return nil, err
		}
		f.Image = ref
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.dropImage(ctx, f.Image)
		if errors.Is(err, repository.ErrFacilityExists) {
			return nil, conflict("facility already exists", err)
		}
		return nil, internal("create facility", err)
	}
	log.Printf("[facility] created %s court=%s sport=%s price=%d", f.ID, f.CourtNumber, f.SportName, f.CourtPrice)
	return f, nil
}

func (s *FacilityService) Get(ctx context.Context, id string) (*model.Facility, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("facility")
	}
	f, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("facility")
	}
	if err != nil {
		return nil, internal("load facility", err)
	}
	return f, nil
}

// List returns facilities of sportName, or all when empty.
func (s *FacilityService) List(ctx context.Context, sportName string, onlyActive bool) ([]model.Facility, error) {
	out, err := s.repo.List(ctx, strings.TrimSpace(sportName), onlyActive)
	if err != nil {
		return nil, internal("list facilities", err)
	}
	if out == nil {
		out = []model.Facility{}
	}
	return out, nil
}

func (s *FacilityService) Update(ctx context.Context, id string, in FacilityInput, image *Upload) (*model.Facility, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in = trimFacility(in)
	if in.CourtPrice < 0 {
		return nil, invalidInput("courtPrice must be positive")
	}

	patch := &model.Facility{
		ID:            current.ID,
		CourtNumber:   in.CourtNumber,
		SportName:     in.SportName,
		SportCategory: in.SportCategory,
		CourtPrice:    in.CourtPrice,
	}
	if image != nil && len(image.Data) > 0 {
		ref, err := s.putImage(ctx, image)
		if err != nil {
			return nil, err
		}
		patch.Image = ref
	}

	if err := s.repo.Update(ctx, patch); err != nil {
		s.dropImage(ctx, patch.Image)
		switch {
		case errors.Is(err, repository.ErrFacilityExists):
			return nil, conflict("facility already exists", err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, notFound("facility")
		}
		return nil, internal("update facility", err)
	}
	if patch.Image != "" && current.Image != "" && current.Image != patch.Image {
		s.dropImage(ctx, current.Image)
	}
	return s.Get(ctx, id)
}

// Toggle flips IsActive. Inactive courts cannot be booked and are hidden
// from availability.
func (s *FacilityService) Toggle(ctx context.Context, id string) (*model.Facility, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, !f.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("facility")
		}
		return nil, internal("toggle facility", err)
	}
	f.IsActive = !f.IsActive
	return f, nil
}

func (s *FacilityService) Delete(ctx context.Context, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("facility")
		}
		return internal("delete facility", err)
	}
	s.dropImage(ctx, f.Image)
	return nil
}

func (s *FacilityService) putImage(ctx context.Context, image *Upload) (string, error) {
	name := "facility-" + uuid.NewString() + strings.ToLower(filepath.Ext(image.Filename))
	ref, err := s.blobs.Put(ctx, artifact.FolderFacilities, name, image.Data)
	if err != nil {
		return "", internal("store facility image", err)
	}
	return ref, nil
}

func (s *FacilityService) dropImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		log.Printf("[facility] drop image %s: %v", ref, err)
	}
}

func trimFacility(in FacilityInput) FacilityInput {
	in.CourtNumber = strings.TrimSpace(in.CourtNumber)
	in.SportName = strings.TrimSpace(in.SportName)
	in.SportCategory = strings.TrimSpace(in.SportCategory)
	return in
}
