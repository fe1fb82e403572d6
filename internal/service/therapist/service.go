package therapist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type Service struct {
	repo repository.TherapistRepository
}

func NewService(repo repository.TherapistRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *model.CreateTherapistRequest) (*model.Therapist, error) {
	therapist := &model.Therapist{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, therapist); err != nil {
		return nil, fmt.Errorf("failed to create therapist: %w", err)
	}
	return therapist, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	return s.repo.Get(ctx, id)
}

// GetByUserID resolves the therapist profile behind an authenticated user.
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Therapist, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]*model.Therapist, error) {
	return s.repo.List(ctx)
}
