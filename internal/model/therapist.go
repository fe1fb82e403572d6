package model

import (
	"time"

	"github.com/google/uuid"
)

type Therapist struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Specialty string    `db:"specialty" json:"specialty,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateTherapistRequest struct {
	UserID    uuid.UUID `json:"user_id" binding:"required"`
	Name      string    `json:"name" binding:"required,max=255"`
	Email     string    `json:"email" binding:"required,email"`
	Specialty string    `json:"specialty"`
}
