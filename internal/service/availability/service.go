package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Service owns the recurring weekly availability blocks and answers the
// coverage question for candidate booking windows. Block lists are cached
// per therapist and weekday with an explicit TTL; writes invalidate.
type Service struct {
	repo  repository.AvailabilityRepository
	cache *cache.Cache
}

func NewService(repo repository.AvailabilityRepository, cacheTTL time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *Service) CreateBlock(ctx context.Context, therapistID uuid.UUID, req *model.CreateAvailabilityRequest) (*model.AvailabilityBlock, error) {
	if !model.ValidWeekday(req.Weekday) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid weekday %q", req.Weekday), nil)
	}

	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid start_time", err)
	}
	end, err := model.ParseClock(req.EndTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid end_time", err)
	}
	if start >= end {
		return nil, apperrors.BadRequest("start_time must be before end_time", nil)
	}

	block := &model.AvailabilityBlock{
		ID:          uuid.New(),
		TherapistID: therapistID,
		Weekday:     req.Weekday,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to create availability block: %w", err)
	}

	s.invalidate(therapistID)
	return block, nil
}

func (s *Service) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	block, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(block.TherapistID)
	return nil
}

// GetBlock returns a single block by id, used for ownership checks.
func (s *Service) GetBlock(ctx context.Context, id uuid.UUID) (*model.AvailabilityBlock, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListForTherapist(ctx context.Context, therapistID uuid.UUID) ([]*model.AvailabilityBlock, error) {
	return s.repo.ListForTherapist(ctx, therapistID)
}

// Covers reports whether [start, end] lies fully inside a single availability
// block on start's weekday. The weekday comes from start's date alone and no
// stitching across blocks or days happens.
func (s *Service) Covers(ctx context.Context, therapistID uuid.UUID, start, end time.Time) (bool, error) {
	blocks, err := s.blocksForWeekday(ctx, therapistID, model.WeekdayName(start))
	if err != nil {
		return false, err
	}

	for _, block := range blocks {
		if block.Covers(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) blocksForWeekday(ctx context.Context, therapistID uuid.UUID, weekday string) ([]*model.AvailabilityBlock, error) {
	key := cacheKey(therapistID, weekday)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.AvailabilityBlock), nil
	}

	blocks, err := s.repo.ListForWeekday(ctx, therapistID, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability blocks: %w", err)
	}

	s.cache.SetDefault(key, blocks)
	return blocks, nil
}

func (s *Service) invalidate(therapistID uuid.UUID) {
	for _, day := range model.Weekdays {
		s.cache.Delete(cacheKey(therapistID, day))
	}
}

func cacheKey(therapistID uuid.UUID, weekday string) string {
	return therapistID.String() + "/" + weekday
}
