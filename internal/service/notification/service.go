package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Service fans out booking notifications: email to both participants and a
// push event on the broker for the dispatcher worker. Everything here is
// best-effort; errors are logged and counted, never returned, so a failed
// notification can never fail or roll back a booking.
type Service struct {
	patients   repository.PatientRepository
	therapists repository.TherapistRepository
	treatments repository.TreatmentRepository
	email      email.Service
	broker     messaging.Broker
	metrics    *metrics.Metrics
}

func NewService(
	patients repository.PatientRepository,
	therapists repository.TherapistRepository,
	treatments repository.TreatmentRepository,
	emailSvc email.Service,
	broker messaging.Broker,
	m *metrics.Metrics,
) *Service {
	return &Service{
		patients:   patients,
		therapists: therapists,
		treatments: treatments,
		email:      emailSvc,
		broker:     broker,
		metrics:    m,
	}
}

func (s *Service) AppointmentBooked(ctx context.Context, appointment *model.Appointment) {
	s.fanOut(ctx, model.NotificationKindBooked, appointment)
}

func (s *Service) AppointmentUpdated(ctx context.Context, appointment *model.Appointment) {
	s.fanOut(ctx, model.NotificationKindUpdated, appointment)
}

func (s *Service) AppointmentCancelled(ctx context.Context, appointment *model.Appointment) {
	s.fanOut(ctx, model.NotificationKindCancelled, appointment)
}

func (s *Service) fanOut(ctx context.Context, kind model.NotificationKind, appointment *model.Appointment) {
	patient, err := s.patients.Get(ctx, appointment.PatientID)
	if err != nil {
		s.fail("lookup", appointment.ID, err)
		return
	}
	therapist, err := s.therapists.Get(ctx, appointment.TherapistID)
	if err != nil {
		s.fail("lookup", appointment.ID, err)
		return
	}
	treatment, err := s.treatments.Get(ctx, appointment.TreatmentID)
	if err != nil {
		s.fail("lookup", appointment.ID, err)
		return
	}

	subject, body := compose(kind, treatment.Name, appointment.StartTime)

	if err := s.email.Send(ctx, patient.Email, subject, body); err != nil {
		s.fail("email", appointment.ID, err)
	}
	if err := s.email.Send(ctx, therapist.Email, subject, fmt.Sprintf("%s Patient: %s.", body, patient.Name)); err != nil {
		s.fail("email", appointment.ID, err)
	}

	event := &model.PushEvent{
		ID:            uuid.New(),
		Kind:          kind,
		UserID:        patient.UserID,
		AppointmentID: appointment.ID,
		Title:         subject,
		Body:          body,
		CreatedAt:     time.Now(),
	}
	if err := s.broker.Publish(ctx, messaging.PushChannel, event); err != nil {
		s.fail("push", appointment.ID, err)
	}
}

func (s *Service) fail(channel string, appointmentID uuid.UUID, err error) {
	s.metrics.NotificationFailures.WithLabelValues(channel).Inc()
	log.Warn().Err(err).
		Str("channel", channel).
		Str("appointment_id", appointmentID.String()).
		Msg("notification dispatch failed")
}

func compose(kind model.NotificationKind, treatmentName string, start time.Time) (subject, body string) {
	when := start.Format("2006-01-02 15:04")
	switch kind {
	case model.NotificationKindBooked:
		return "Appointment confirmed",
			fmt.Sprintf("Your %s appointment on %s has been confirmed.", treatmentName, when)
	case model.NotificationKindUpdated:
		return "Appointment updated",
			fmt.Sprintf("Your %s appointment has been moved to %s.", treatmentName, when)
	case model.NotificationKindCancelled:
		return "Appointment cancelled",
			fmt.Sprintf("Your %s appointment on %s has been cancelled.", treatmentName, when)
	default:
		return "Appointment notice",
			fmt.Sprintf("Update for your %s appointment on %s.", treatmentName, when)
	}
}
