package device

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type Service struct {
	repo repository.DeviceRepository
}

func NewService(repo repository.DeviceRepository) *Service {
	return &Service{repo: repo}
}

// Register stores the caller's push token, replacing any previous one.
func (s *Service) Register(ctx context.Context, userID uuid.UUID, req *model.RegisterDeviceRequest) (*model.Device, error) {
	device := &model.Device{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     req.Token,
		Platform:  req.Platform,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Upsert(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return device, nil
}

func (s *Service) Unregister(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteForUser(ctx, userID)
}
