package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type PatientDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
}

type TherapistDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Therapist, error)
}

// Resolver turns a verified token identity into a Caller by looking up the
// patient and therapist profiles behind the user id.
type Resolver struct {
	patients   PatientDirectory
	therapists TherapistDirectory
}

func NewResolver(patients PatientDirectory, therapists TherapistDirectory) *Resolver {
	return &Resolver{patients: patients, therapists: therapists}
}

// Resolve fills in the profile ids for the caller's role. A missing profile
// is not an error; the capability check treats it as owning nothing.
func (r *Resolver) Resolve(ctx context.Context, auth model.AuthContext) (Caller, error) {
	caller := Caller{Auth: auth}

	switch auth.Role {
	case model.RolePatient:
		patient, err := r.patients.GetByUserID(ctx, auth.UserID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return caller, nil
			}
			return caller, fmt.Errorf("failed to resolve patient profile: %w", err)
		}
		caller.PatientID = patient.ID
	case model.RoleTherapist:
		therapist, err := r.therapists.GetByUserID(ctx, auth.UserID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return caller, nil
			}
			return caller, fmt.Errorf("failed to resolve therapist profile: %w", err)
		}
		caller.TherapistID = therapist.ID
	}

	return caller, nil
}
