package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func TestCan(t *testing.T) {
	patientID := uuid.New()
	therapistID := uuid.New()
	resource := Resource{PatientID: patientID, TherapistID: therapistID}

	admin := Caller{Auth: model.AuthContext{UserID: uuid.New(), Role: model.RoleAdmin}}
	owningPatient := Caller{Auth: model.AuthContext{UserID: uuid.New(), Role: model.RolePatient}, PatientID: patientID}
	otherPatient := Caller{Auth: model.AuthContext{UserID: uuid.New(), Role: model.RolePatient}, PatientID: uuid.New()}
	owningTherapist := Caller{Auth: model.AuthContext{UserID: uuid.New(), Role: model.RoleTherapist}, TherapistID: therapistID}
	otherTherapist := Caller{Auth: model.AuthContext{UserID: uuid.New(), Role: model.RoleTherapist}, TherapistID: uuid.New()}
	noProfile := Caller{Auth: model.AuthContext{UserID: uuid.New(), Role: model.RolePatient}}

	tests := []struct {
		name   string
		caller Caller
		action Action
		want   bool
	}{
		{"admin reads anything", admin, ActionRead, true},
		{"admin overrides", admin, ActionOverride, true},
		{"admin deletes", admin, ActionDelete, true},
		{"owning patient reads", owningPatient, ActionRead, true},
		{"owning patient modifies", owningPatient, ActionModify, true},
		{"owning patient cancels", owningPatient, ActionCancel, true},
		{"owning patient cannot override", owningPatient, ActionOverride, false},
		{"owning patient cannot delete", owningPatient, ActionDelete, false},
		{"other patient denied", otherPatient, ActionRead, false},
		{"owning therapist reads", owningTherapist, ActionRead, true},
		{"owning therapist modifies", owningTherapist, ActionModify, true},
		{"owning therapist cannot override", owningTherapist, ActionOverride, false},
		{"other therapist denied", otherTherapist, ActionModify, false},
		{"caller without profile owns nothing", noProfile, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.caller, tt.action, resource))
		})
	}
}

func TestCanNeverMatchesNilOwner(t *testing.T) {
	// A resource without a patient owner must not be readable by a patient
	// whose profile id is also unset.
	caller := Caller{Auth: model.AuthContext{UserID: uuid.New(), Role: model.RolePatient}}
	assert.False(t, Can(caller, ActionRead, Resource{TherapistID: uuid.New()}))
}
