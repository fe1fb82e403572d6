package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// AvailabilityChecker answers whether a candidate window lies inside the
// therapist's recurring availability.
type AvailabilityChecker interface {
	Covers(ctx context.Context, therapistID uuid.UUID, start, end time.Time) (bool, error)
}

// Notifier fans out booking notifications. Implementations must swallow
// their own errors: a failed notification never fails the booking.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appointment *model.Appointment)
	AppointmentUpdated(ctx context.Context, appointment *model.Appointment)
	AppointmentCancelled(ctx context.Context, appointment *model.Appointment)
}

// Service is the booking orchestrator: it composes the availability check
// and the conflict check inside one transaction and owns the appointment
// lifecycle (scheduled -> completed | cancelled, both terminal).
type Service struct {
	repo         repository.AppointmentRepository
	treatments   repository.TreatmentRepository
	availability AvailabilityChecker
	tx           repository.TxManager
	notifier     Notifier
	metrics      *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	treatments repository.TreatmentRepository,
	availability AvailabilityChecker,
	tx repository.TxManager,
	notifier Notifier,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:         repo,
		treatments:   treatments,
		availability: availability,
		tx:           tx,
		notifier:     notifier,
		metrics:      m,
	}
}

// Create books a new appointment for the patient. The end time is derived
// from the treatment duration; both checks and the insert run in a single
// transaction serialized per therapist.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	treatment, err := s.treatments.Get(ctx, req.TreatmentID)
	if err != nil {
		return nil, err
	}

	start := req.StartTime
	end := start.Add(treatment.Duration())
	if !end.After(start) {
		s.metrics.BookingsRejected.WithLabelValues("invalid_window").Inc()
		return nil, apperrors.InvalidWindow("appointment window must have positive duration")
	}

	now := time.Now()
	appointment := &model.Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		TherapistID: req.TherapistID,
		TreatmentID: req.TreatmentID,
		StartTime:   start,
		EndTime:     end,
		Status:      model.AppointmentStatusScheduled,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tx.Within(ctx, func(ctx context.Context) error {
		if err := s.repo.LockSchedule(ctx, req.TherapistID); err != nil {
			return err
		}

		covered, err := s.availability.Covers(ctx, req.TherapistID, start, end)
		if err != nil {
			return err
		}
		if !covered {
			return apperrors.InvalidWindow("therapist not available at this time")
		}

		conflict, err := s.repo.HasConflict(ctx, req.TherapistID, start, end, nil)
		if err != nil {
			return err
		}
		if conflict {
			return apperrors.Conflict("appointment conflicts with existing booking")
		}

		return s.repo.Create(ctx, appointment)
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.metrics.BookingsCreated.Inc()
	s.dispatch(ctx, s.notifier.AppointmentBooked, appointment)
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// Update applies the requested changes. When the time window changes, both
// checks re-run against the therapist's current state, excluding this
// appointment from the conflict query; allowOverride (administrative callers
// only) bypasses both checks and marks the row overridden, which exempts it
// from the database overlap constraint so the write persists even when it
// overlaps another booking. A later reschedule that passes the checks clears
// the mark. Non-time fields apply unconditionally.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest, allowOverride bool) (*model.Appointment, error) {
	var updated *model.Appointment

	err := s.tx.Within(ctx, func(ctx context.Context) error {
		appointment, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}

		newStart := appointment.StartTime
		newEnd := appointment.EndTime
		if req.StartTime != nil {
			newStart = *req.StartTime
		}
		if req.EndTime != nil {
			newEnd = *req.EndTime
		}

		windowChanged := !newStart.Equal(appointment.StartTime) || !newEnd.Equal(appointment.EndTime)
		if windowChanged {
			if !newEnd.After(newStart) {
				return apperrors.InvalidWindow("appointment window must have positive duration")
			}

			if !allowOverride {
				if err := s.repo.LockSchedule(ctx, appointment.TherapistID); err != nil {
					return err
				}

				covered, err := s.availability.Covers(ctx, appointment.TherapistID, newStart, newEnd)
				if err != nil {
					return err
				}
				if !covered {
					return apperrors.InvalidWindow("therapist not available at this time")
				}

				conflict, err := s.repo.HasConflict(ctx, appointment.TherapistID, newStart, newEnd, &appointment.ID)
				if err != nil {
					return err
				}
				if conflict {
					return apperrors.Conflict("appointment conflicts with existing booking")
				}
			}

			appointment.Overridden = allowOverride
		}

		if req.Status != nil && *req.Status != appointment.Status {
			if !req.Status.Valid() {
				return apperrors.BadRequest("invalid appointment status", nil)
			}
			if appointment.Status.Terminal() {
				return apperrors.BadRequest("appointment is in a terminal state", nil)
			}
			appointment.Status = *req.Status
		}

		appointment.StartTime = newStart
		appointment.EndTime = newEnd
		if req.Notes != nil {
			appointment.Notes = *req.Notes
		}
		appointment.UpdatedAt = time.Now()

		if err := s.repo.Update(ctx, appointment); err != nil {
			return err
		}

		updated = appointment
		return nil
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.dispatch(ctx, s.notifier.AppointmentUpdated, updated)
	return updated, nil
}

// Cancel transitions a scheduled appointment to cancelled, after which it no
// longer participates in conflict checks.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if appointment.Status.Terminal() {
		return nil, apperrors.BadRequest("appointment is already "+string(appointment.Status), nil)
	}

	appointment.Status = model.AppointmentStatusCancelled
	appointment.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	s.metrics.BookingsCancelled.Inc()
	s.dispatch(ctx, s.notifier.AppointmentCancelled, appointment)
	return appointment, nil
}

// Delete removes the record entirely. Reserved for administrative callers.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// dispatch runs the notification fan-out after the booking has committed,
// detached from the request lifecycle.
func (s *Service) dispatch(ctx context.Context, fn func(context.Context, *model.Appointment), appointment *model.Appointment) {
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error().Interface("panic", p).Msg("notification dispatch panicked")
			}
		}()
		fn(context.WithoutCancel(ctx), appointment)
	}()
}

func (s *Service) countRejection(err error) {
	switch {
	case apperrors.IsConflict(err):
		s.metrics.BookingsRejected.WithLabelValues("conflict").Inc()
	case apperrors.IsInvalidWindow(err):
		s.metrics.BookingsRejected.WithLabelValues("invalid_window").Inc()
	}
}
