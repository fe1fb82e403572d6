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

type therapistRepository struct {
	BaseRepository
}

func NewTherapistRepository(db *sqlx.DB) *therapistRepository {
	return &therapistRepository{NewBaseRepository(db)}
}

func (r *therapistRepository) Create(ctx context.Context, therapist *model.Therapist) error {
	query := `
		INSERT INTO therapists (id, user_id, name, email, specialty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q(ctx).ExecContext(ctx, query,
		therapist.ID,
		therapist.UserID,
		therapist.Name,
		therapist.Email,
		therapist.Specialty,
		therapist.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create therapist: %w", err)
	}
	return nil
}

func (r *therapistRepository) Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	var therapist model.Therapist
	err := r.q(ctx).GetContext(ctx, &therapist,
		`SELECT id, user_id, name, email, specialty, created_at FROM therapists WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("therapist", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get therapist: %w", err)
	}
	return &therapist, nil
}

func (r *therapistRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Therapist, error) {
	var therapist model.Therapist
	err := r.q(ctx).GetContext(ctx, &therapist,
		`SELECT id, user_id, name, email, specialty, created_at FROM therapists WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("therapist profile", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get therapist by user: %w", err)
	}
	return &therapist, nil
}

func (r *therapistRepository) List(ctx context.Context) ([]*model.Therapist, error) {
	therapists := []*model.Therapist{}
	err := r.q(ctx).SelectContext(ctx, &therapists,
		`SELECT id, user_id, name, email, specialty, created_at FROM therapists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list therapists: %w", err)
	}
	return therapists, nil
}
