package model

import "github.com/google/uuid"

const (
	RoleAdmin     = "admin"
	RoleTherapist = "therapist"
	RolePatient   = "patient"
)

// AuthContext is the already-verified caller identity extracted from the JWT.
// Token issuance and registration live outside this service.
type AuthContext struct {
	UserID uuid.UUID
	Role   string
}

func (a AuthContext) IsAdmin() bool { return a.Role == RoleAdmin }
