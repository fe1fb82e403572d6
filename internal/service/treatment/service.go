package treatment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo repository.TreatmentRepository
}

func NewService(repo repository.TreatmentRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *model.CreateTreatmentRequest) (*model.Treatment, error) {
	if req.DurationMinutes <= 0 {
		return nil, apperrors.BadRequest("treatment duration must be positive", nil)
	}

	treatment := &model.Treatment{
		ID:              uuid.New(),
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		CreatedAt:       time.Now(),
	}

	if err := s.repo.Create(ctx, treatment); err != nil {
		return nil, fmt.Errorf("failed to create treatment: %w", err)
	}
	return treatment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Treatment, error) {
	return s.repo.List(ctx)
}

// Update changes descriptive fields only. Duration is immutable: it fixes
// the end time of appointments at booking time and is never re-derived.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTreatmentRequest) (*model.Treatment, error) {
	treatment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		treatment.Name = *req.Name
	}
	if req.Description != nil {
		treatment.Description = *req.Description
	}
	if req.Price != nil {
		treatment.Price = *req.Price
	}

	if err := s.repo.Update(ctx, treatment); err != nil {
		return nil, err
	}
	return treatment, nil
}
