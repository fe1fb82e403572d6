package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	locked       int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	if r.exclusionViolated(a) {
		return apperrors.Conflict("appointment conflicts with existing booking")
	}
	copied := *a
	r.appointments[a.ID] = &copied
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if r.exclusionViolated(a) {
		return apperrors.Conflict("appointment conflicts with existing booking")
	}
	copied := *a
	r.appointments[a.ID] = &copied
	return nil
}

// exclusionViolated mirrors the partial overlap constraint on the
// appointments table: scheduled rows not marked overridden may not overlap
// for one therapist.
func (r *fakeAppointmentRepo) exclusionViolated(candidate *model.Appointment) bool {
	if candidate.Status != model.AppointmentStatusScheduled || candidate.Overridden {
		return false
	}
	for _, a := range r.appointments {
		if a.ID == candidate.ID || a.TherapistID != candidate.TherapistID {
			continue
		}
		if a.Status == model.AppointmentStatusScheduled && !a.Overridden &&
			a.Overlaps(candidate.StartTime, candidate.EndTime) {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.appointments[id]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	delete(r.appointments, id)
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	out := []*model.Appointment{}
	for _, a := range r.appointments {
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) HasConflict(_ context.Context, therapistID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	for _, a := range r.appointments {
		if a.TherapistID != therapistID || a.Status != model.AppointmentStatusScheduled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) ListScheduledBetween(_ context.Context, therapistID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	out := []*model.Appointment{}
	for _, a := range r.appointments {
		if a.TherapistID == therapistID && a.Status == model.AppointmentStatusScheduled && a.Overlaps(from, to) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) LockSchedule(_ context.Context, _ uuid.UUID) error {
	r.locked++
	return nil
}

type fakeTreatmentRepo struct {
	treatments map[uuid.UUID]*model.Treatment
}

func (r *fakeTreatmentRepo) Create(_ context.Context, t *model.Treatment) error {
	r.treatments[t.ID] = t
	return nil
}

func (r *fakeTreatmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Treatment, error) {
	t, ok := r.treatments[id]
	if !ok {
		return nil, apperrors.NotFound("treatment", nil)
	}
	return t, nil
}

func (r *fakeTreatmentRepo) Update(_ context.Context, t *model.Treatment) error {
	r.treatments[t.ID] = t
	return nil
}

func (r *fakeTreatmentRepo) List(_ context.Context) ([]*model.Treatment, error) {
	out := []*model.Treatment{}
	for _, t := range r.treatments {
		out = append(out, t)
	}
	return out, nil
}

type stubAvailability struct {
	covered bool
	calls   int
}

func (s *stubAvailability) Covers(_ context.Context, _ uuid.UUID, _, _ time.Time) (bool, error) {
	s.calls++
	return s.covered, nil
}

type passthroughTx struct{}

func (passthroughTx) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noopNotifier struct{}

func (noopNotifier) AppointmentBooked(context.Context, *model.Appointment)    {}
func (noopNotifier) AppointmentUpdated(context.Context, *model.Appointment)   {}
func (noopNotifier) AppointmentCancelled(context.Context, *model.Appointment) {}

type fixture struct {
	service      *Service
	repo         *fakeAppointmentRepo
	availability *stubAvailability
	treatmentID  uuid.UUID
	therapistID  uuid.UUID
	patientID    uuid.UUID
}

func newFixture(t *testing.T, durationMinutes int) *fixture {
	t.Helper()

	repo := newFakeAppointmentRepo()
	availability := &stubAvailability{covered: true}
	treatmentID := uuid.New()
	treatments := &fakeTreatmentRepo{treatments: map[uuid.UUID]*model.Treatment{
		treatmentID: {
			ID:              treatmentID,
			Name:            "Physiotherapy",
			DurationMinutes: durationMinutes,
		},
	}}

	return &fixture{
		service: NewService(
			repo,
			treatments,
			availability,
			passthroughTx{},
			noopNotifier{},
			metrics.New("test"),
		),
		repo:         repo,
		availability: availability,
		treatmentID:  treatmentID,
		therapistID:  uuid.New(),
		patientID:    uuid.New(),
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, time.September, 7, hour, minute, 0, 0, time.UTC)
}

func (f *fixture) book(t *testing.T, start time.Time) *model.Appointment {
	t.Helper()
	booked, err := f.service.Create(context.Background(), f.patientID, &model.CreateAppointmentRequest{
		TherapistID: f.therapistID,
		TreatmentID: f.treatmentID,
		StartTime:   start,
	})
	require.NoError(t, err)
	return booked
}

func TestCreateDerivesEndFromTreatmentDuration(t *testing.T) {
	f := newFixture(t, 45)

	booked := f.book(t, at(10, 0))

	assert.Equal(t, at(10, 45), booked.EndTime)
	assert.Equal(t, model.AppointmentStatusScheduled, booked.Status)
	assert.Equal(t, f.patientID, booked.PatientID)
	assert.Equal(t, 1, f.repo.locked)
}

func TestCreateUnknownTreatment(t *testing.T) {
	f := newFixture(t, 30)

	_, err := f.service.Create(context.Background(), f.patientID, &model.CreateAppointmentRequest{
		TherapistID: f.therapistID,
		TreatmentID: uuid.New(),
		StartTime:   at(10, 0),
	})

	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t, 30)
	f.book(t, at(10, 0))

	_, err := f.service.Create(context.Background(), f.patientID, &model.CreateAppointmentRequest{
		TherapistID: f.therapistID,
		TreatmentID: f.treatmentID,
		StartTime:   at(10, 15),
	})

	assert.True(t, apperrors.IsConflict(err))
}

func TestCreateAllowsTouchingWindows(t *testing.T) {
	f := newFixture(t, 30)
	f.book(t, at(10, 0))

	booked := f.book(t, at(10, 30))

	assert.Equal(t, at(11, 0), booked.EndTime)
}

func TestCreateIgnoresCancelledAppointments(t *testing.T) {
	f := newFixture(t, 30)
	first := f.book(t, at(10, 0))

	_, err := f.service.Cancel(context.Background(), first.ID)
	require.NoError(t, err)

	booked := f.book(t, at(10, 0))
	assert.Equal(t, at(10, 30), booked.EndTime)
}

func TestCreateRejectsUncoveredWindow(t *testing.T) {
	f := newFixture(t, 30)
	f.availability.covered = false

	_, err := f.service.Create(context.Background(), f.patientID, &model.CreateAppointmentRequest{
		TherapistID: f.therapistID,
		TreatmentID: f.treatmentID,
		StartTime:   at(7, 30),
	})

	assert.True(t, apperrors.IsInvalidWindow(err))
}

func TestUpdateNotesSkipsChecks(t *testing.T) {
	f := newFixture(t, 30)
	booked := f.book(t, at(10, 0))
	f.availability.calls = 0

	notes := "bring referral letter"
	updated, err := f.service.Update(context.Background(), booked.ID, &model.UpdateAppointmentRequest{Notes: &notes}, false)

	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, 0, f.availability.calls, "unchanged window must not re-run availability")
	assert.Equal(t, booked.StartTime, updated.StartTime)
}

func TestUpdateReschedulingExcludesSelf(t *testing.T) {
	f := newFixture(t, 60)
	booked := f.book(t, at(10, 0))

	// Overlaps only with itself; the exclusion keeps this legal.
	newStart := at(10, 30)
	newEnd := at(11, 30)
	updated, err := f.service.Update(context.Background(), booked.ID, &model.UpdateAppointmentRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	}, false)

	require.NoError(t, err)
	assert.Equal(t, newStart, updated.StartTime)
	assert.Equal(t, newEnd, updated.EndTime)
}

func TestUpdateRejectsConflictWithOther(t *testing.T) {
	f := newFixture(t, 30)
	first := f.book(t, at(10, 0))
	f.book(t, at(11, 0))

	newStart := at(11, 15)
	newEnd := at(11, 45)
	_, err := f.service.Update(context.Background(), first.ID, &model.UpdateAppointmentRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	}, false)

	assert.True(t, apperrors.IsConflict(err))
}

func TestUpdateRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t, 30)
	booked := f.book(t, at(10, 0))

	newStart := at(12, 0)
	newEnd := at(12, 0)
	_, err := f.service.Update(context.Background(), booked.ID, &model.UpdateAppointmentRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	}, false)

	assert.True(t, apperrors.IsInvalidWindow(err))
}

func TestUpdateOverrideBypassesChecks(t *testing.T) {
	f := newFixture(t, 30)
	first := f.book(t, at(10, 0))
	f.book(t, at(11, 0))
	f.availability.covered = false
	f.availability.calls = 0

	newStart := at(11, 0)
	newEnd := at(11, 30)
	updated, err := f.service.Update(context.Background(), first.ID, &model.UpdateAppointmentRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	}, true)

	require.NoError(t, err)
	assert.Equal(t, newStart, updated.StartTime)
	assert.Equal(t, 0, f.availability.calls)
	assert.True(t, updated.Overridden)

	// The overlap survives in the store, not just in the response.
	stored, err := f.repo.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, stored.Overridden)
	assert.Equal(t, newStart, stored.StartTime)
}

func TestUpdateCleanRescheduleClearsOverride(t *testing.T) {
	f := newFixture(t, 30)
	first := f.book(t, at(10, 0))
	f.book(t, at(11, 0))

	// Force an overlap, then move the appointment back to a free window
	// without the override.
	overlapStart := at(11, 0)
	overlapEnd := at(11, 30)
	_, err := f.service.Update(context.Background(), first.ID, &model.UpdateAppointmentRequest{
		StartTime: &overlapStart,
		EndTime:   &overlapEnd,
	}, true)
	require.NoError(t, err)

	freeStart := at(13, 0)
	freeEnd := at(13, 30)
	updated, err := f.service.Update(context.Background(), first.ID, &model.UpdateAppointmentRequest{
		StartTime: &freeStart,
		EndTime:   &freeEnd,
	}, false)

	require.NoError(t, err)
	assert.False(t, updated.Overridden)
	assert.Equal(t, freeStart, updated.StartTime)
}

func TestUpdateRejectsStatusChangeFromTerminal(t *testing.T) {
	f := newFixture(t, 30)
	booked := f.book(t, at(10, 0))
	_, err := f.service.Cancel(context.Background(), booked.ID)
	require.NoError(t, err)

	status := model.AppointmentStatusScheduled
	_, err = f.service.Update(context.Background(), booked.ID, &model.UpdateAppointmentRequest{Status: &status}, false)

	require.Error(t, err)
}

func TestCancelIsTerminal(t *testing.T) {
	f := newFixture(t, 30)
	booked := f.book(t, at(10, 0))

	cancelled, err := f.service.Cancel(context.Background(), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	_, err = f.service.Cancel(context.Background(), booked.ID)
	require.Error(t, err)
}

func TestCreateRejectsNonPositiveDuration(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.service.Create(context.Background(), f.patientID, &model.CreateAppointmentRequest{
		TherapistID: f.therapistID,
		TreatmentID: f.treatmentID,
		StartTime:   at(10, 0),
	})

	assert.True(t, apperrors.IsInvalidWindow(err))
}
