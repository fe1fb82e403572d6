package model

import (
	"time"

	"github.com/google/uuid"
)

// Treatment is the immutable reference that fixes an appointment's duration
// and price at booking time.
type Treatment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Price           float64   `db:"price" json:"price"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Duration returns the treatment length as a time.Duration.
func (t *Treatment) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

type CreateTreatmentRequest struct {
	Name            string  `json:"name" binding:"required,max=255"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	Price           float64 `json:"price" binding:"required,gte=0"`
}

type UpdateTreatmentRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}
