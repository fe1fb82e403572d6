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

type treatmentRepository struct {
	BaseRepository
}

func NewTreatmentRepository(db *sqlx.DB) *treatmentRepository {
	return &treatmentRepository{NewBaseRepository(db)}
}

func (r *treatmentRepository) Create(ctx context.Context, treatment *model.Treatment) error {
	query := `
		INSERT INTO treatments (id, name, description, duration_minutes, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q(ctx).ExecContext(ctx, query,
		treatment.ID,
		treatment.Name,
		treatment.Description,
		treatment.DurationMinutes,
		treatment.Price,
		treatment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create treatment: %w", err)
	}
	return nil
}

func (r *treatmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	query := `
		SELECT id, name, description, duration_minutes, price, created_at
		FROM treatments
		WHERE id = $1
	`
	var treatment model.Treatment
	err := r.q(ctx).GetContext(ctx, &treatment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("treatment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return &treatment, nil
}

func (r *treatmentRepository) Update(ctx context.Context, treatment *model.Treatment) error {
	query := `
		UPDATE treatments
		SET name = $1, description = $2, price = $3
		WHERE id = $4
	`
	result, err := r.q(ctx).ExecContext(ctx, query,
		treatment.Name,
		treatment.Description,
		treatment.Price,
		treatment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update treatment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("treatment", nil)
	}

	return nil
}

func (r *treatmentRepository) List(ctx context.Context) ([]*model.Treatment, error) {
	query := `
		SELECT id, name, description, duration_minutes, price, created_at
		FROM treatments
		ORDER BY name
	`
	treatments := []*model.Treatment{}
	err := r.q(ctx).SelectContext(ctx, &treatments, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	return treatments, nil
}
