package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// TxManager runs fn inside a single database transaction. Repository
	// calls made with the context passed to fn join that transaction.
	TxManager interface {
		Within(ctx context.Context, fn func(ctx context.Context) error) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// HasConflict reports whether a scheduled appointment for the
		// therapist overlaps [start, end). excludeID, when non-nil, leaves
		// that appointment out of the check.
		HasConflict(ctx context.Context, therapistID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
		ListScheduledBetween(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
		// LockSchedule serializes bookings for one therapist within the
		// surrounding transaction.
		LockSchedule(ctx context.Context, therapistID uuid.UUID) error
	}

	AvailabilityRepository interface {
		Create(ctx context.Context, block *model.AvailabilityBlock) error
		Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityBlock, error)
		Delete(ctx context.Context, id uuid.UUID) error
		ListForTherapist(ctx context.Context, therapistID uuid.UUID) ([]*model.AvailabilityBlock, error)
		ListForWeekday(ctx context.Context, therapistID uuid.UUID, weekday string) ([]*model.AvailabilityBlock, error)
	}

	TreatmentRepository interface {
		Create(ctx context.Context, treatment *model.Treatment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error)
		Update(ctx context.Context, treatment *model.Treatment) error
		List(ctx context.Context) ([]*model.Treatment, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
	}

	TherapistRepository interface {
		Create(ctx context.Context, therapist *model.Therapist) error
		Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Therapist, error)
		List(ctx context.Context) ([]*model.Therapist, error)
	}

	DeviceRepository interface {
		Upsert(ctx context.Context, device *model.Device) error
		ListTokens(ctx context.Context, userID uuid.UUID) ([]string, error)
		DeleteForUser(ctx context.Context, userID uuid.UUID) error
	}
)
