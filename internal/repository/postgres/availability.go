package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type availabilityRepository struct {
	BaseRepository
}

func NewAvailabilityRepository(db *sqlx.DB) *availabilityRepository {
	return &availabilityRepository{NewBaseRepository(db)}
}

func (r *availabilityRepository) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	query := `
		INSERT INTO therapist_availability (
			id, therapist_id, weekday, start_time, end_time, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q(ctx).ExecContext(ctx, query,
		block.ID,
		block.TherapistID,
		block.Weekday,
		block.StartTime,
		block.EndTime,
		block.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability block: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityBlock, error) {
	query := `
		SELECT id, therapist_id, weekday, start_time, end_time, created_at
		FROM therapist_availability
		WHERE id = $1
	`
	var block model.AvailabilityBlock
	err := r.q(ctx).GetContext(ctx, &block, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("availability block", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability block: %w", err)
	}
	return &block, nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q(ctx).ExecContext(ctx, `DELETE FROM therapist_availability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability block: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("availability block", nil)
	}

	return nil
}

func (r *availabilityRepository) ListForTherapist(ctx context.Context, therapistID uuid.UUID) ([]*model.AvailabilityBlock, error) {
	query := `
		SELECT id, therapist_id, weekday, start_time, end_time, created_at
		FROM therapist_availability
		WHERE therapist_id = $1
		ORDER BY weekday, start_time
	`
	blocks := []*model.AvailabilityBlock{}
	err := r.q(ctx).SelectContext(ctx, &blocks, query, therapistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return blocks, nil
}

func (r *availabilityRepository) ListForWeekday(ctx context.Context, therapistID uuid.UUID, weekday string) ([]*model.AvailabilityBlock, error) {
	query := `
		SELECT id, therapist_id, weekday, start_time, end_time, created_at
		FROM therapist_availability
		WHERE therapist_id = $1 AND weekday = $2
		ORDER BY start_time
	`
	blocks := []*model.AvailabilityBlock{}
	err := r.q(ctx).SelectContext(ctx, &blocks, query, therapistID, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability for weekday: %w", err)
	}
	return blocks, nil
}
