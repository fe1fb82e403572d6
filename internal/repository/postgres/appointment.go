package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) *appointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, therapist_id, treatment_id,
			start_time, end_time, status, notes, overridden,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q(ctx).ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.TherapistID,
		appointment.TreatmentID,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Notes,
		appointment.Overridden,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isExclusionViolation(err) {
			return apperrors.Conflict("appointment conflicts with existing booking")
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, therapist_id, treatment_id,
			   start_time, end_time, status, notes, overridden,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.q(ctx).GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, status = $3, notes = $4, overridden = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.q(ctx).ExecContext(ctx, query,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Notes,
		appointment.Overridden,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		if isExclusionViolation(err) {
			return apperrors.Conflict("appointment conflicts with existing booking")
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q(ctx).ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, therapist_id, treatment_id,
			   start_time, end_time, status, notes, overridden,
			   created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.TherapistID != uuid.Nil {
			query += fmt.Sprintf(" AND therapist_id = $%d", argCount)
			args = append(args, filters.TherapistID)
			argCount++
		}
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY start_time DESC"

	appointments := []*model.Appointment{}
	err := r.q(ctx).SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// HasConflict runs the half-open overlap test against scheduled appointments
// only. Touching endpoints do not conflict.
func (r *appointmentRepository) HasConflict(ctx context.Context, therapistID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE therapist_id = $1
			AND status = 'scheduled'
			AND start_time < $3
			AND end_time > $2
	`
	args := []interface{}{therapistID, start, end}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	query += ")"

	var hasConflict bool
	err := r.q(ctx).GetContext(ctx, &hasConflict, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return hasConflict, nil
}

func (r *appointmentRepository) ListScheduledBetween(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, therapist_id, treatment_id,
			   start_time, end_time, status, notes, overridden,
			   created_at, updated_at
		FROM appointments
		WHERE therapist_id = $1
		AND status = 'scheduled'
		AND start_time < $3
		AND end_time > $2
		ORDER BY start_time ASC
	`
	appointments := []*model.Appointment{}
	err := r.q(ctx).SelectContext(ctx, &appointments, query, therapistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled appointments: %w", err)
	}
	return appointments, nil
}

// isExclusionViolation reports whether err is the no_overlapping_scheduled
// constraint firing. The advisory lock makes that a lost race with a
// concurrent booking, so callers surface it as a conflict rather than an
// internal error.
func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "exclusion_violation"
}

// LockSchedule takes a per-therapist advisory lock for the duration of the
// surrounding transaction, serializing concurrent bookings so the conflict
// check stays authoritative.
func (r *appointmentRepository) LockSchedule(ctx context.Context, therapistID uuid.UUID) error {
	_, err := r.q(ctx).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, therapistID)
	if err != nil {
		return fmt.Errorf("failed to lock therapist schedule: %w", err)
	}
	return nil
}
