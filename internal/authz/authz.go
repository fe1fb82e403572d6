package authz

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// Action names what the caller wants to do with a resource.
type Action string

const (
	ActionRead     Action = "read"
	ActionModify   Action = "modify"
	ActionCancel   Action = "cancel"
	ActionDelete   Action = "delete"
	ActionOverride Action = "override"
)

// Resource identifies who owns the thing being acted on. Zero values mean
// "no owner of that kind".
type Resource struct {
	PatientID   uuid.UUID
	TherapistID uuid.UUID
}

// Caller is the verified identity plus its resolved profile ids. Profiles
// the user does not have stay as uuid.Nil.
type Caller struct {
	Auth        model.AuthContext
	PatientID   uuid.UUID
	TherapistID uuid.UUID
}

// Can is the single capability check: every endpoint funnels its role and
// ownership decisions through here instead of branching on roles inline.
func Can(caller Caller, action Action, resource Resource) bool {
	if caller.Auth.IsAdmin() {
		return true
	}

	// Override and hard delete are administrative capabilities.
	if action == ActionOverride || action == ActionDelete {
		return false
	}

	switch caller.Auth.Role {
	case model.RoleTherapist:
		return caller.TherapistID != uuid.Nil && caller.TherapistID == resource.TherapistID
	case model.RolePatient:
		return caller.PatientID != uuid.Nil && caller.PatientID == resource.PatientID
	}
	return false
}
