package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type deviceRepository struct {
	BaseRepository
}

func NewDeviceRepository(db *sqlx.DB) *deviceRepository {
	return &deviceRepository{NewBaseRepository(db)}
}

// Upsert registers a push token, replacing any previous token for the user.
func (r *deviceRepository) Upsert(ctx context.Context, device *model.Device) error {
	query := `
		INSERT INTO devices (id, user_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, platform = EXCLUDED.platform
	`
	_, err := r.q(ctx).ExecContext(ctx, query,
		device.ID,
		device.UserID,
		device.Token,
		device.Platform,
		device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (r *deviceRepository) ListTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	tokens := []string{}
	err := r.q(ctx).SelectContext(ctx, &tokens,
		`SELECT token FROM devices WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	return tokens, nil
}

func (r *deviceRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.q(ctx).ExecContext(ctx, `DELETE FROM devices WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete devices: %w", err)
	}
	return nil
}
