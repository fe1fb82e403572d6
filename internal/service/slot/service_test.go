package slot

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

type fakeAppointments struct {
	scheduled []*model.Appointment
}

func (f *fakeAppointments) Create(context.Context, *model.Appointment) error { return nil }
func (f *fakeAppointments) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}
func (f *fakeAppointments) Update(context.Context, *model.Appointment) error { return nil }
func (f *fakeAppointments) Delete(context.Context, uuid.UUID) error          { return nil }
func (f *fakeAppointments) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointments) HasConflict(context.Context, uuid.UUID, time.Time, time.Time, *uuid.UUID) (bool, error) {
	return false, nil
}
func (f *fakeAppointments) LockSchedule(context.Context, uuid.UUID) error { return nil }

func (f *fakeAppointments) ListScheduledBetween(_ context.Context, therapistID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	out := []*model.Appointment{}
	for _, a := range f.scheduled {
		if a.TherapistID == therapistID && a.Overlaps(from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeAvailability struct {
	blocks []*model.AvailabilityBlock
}

func (f *fakeAvailability) Create(context.Context, *model.AvailabilityBlock) error { return nil }
func (f *fakeAvailability) Get(context.Context, uuid.UUID) (*model.AvailabilityBlock, error) {
	return nil, apperrors.NotFound("availability block", nil)
}
func (f *fakeAvailability) Delete(context.Context, uuid.UUID) error { return nil }
func (f *fakeAvailability) ListForTherapist(context.Context, uuid.UUID) ([]*model.AvailabilityBlock, error) {
	return f.blocks, nil
}
func (f *fakeAvailability) ListForWeekday(_ context.Context, _ uuid.UUID, weekday string) ([]*model.AvailabilityBlock, error) {
	out := []*model.AvailabilityBlock{}
	for _, b := range f.blocks {
		if b.Weekday == weekday {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeTreatments struct {
	treatments map[uuid.UUID]*model.Treatment
}

func (f *fakeTreatments) Create(context.Context, *model.Treatment) error { return nil }
func (f *fakeTreatments) Get(_ context.Context, id uuid.UUID) (*model.Treatment, error) {
	t, ok := f.treatments[id]
	if !ok {
		return nil, apperrors.NotFound("treatment", nil)
	}
	return t, nil
}
func (f *fakeTreatments) Update(context.Context, *model.Treatment) error { return nil }
func (f *fakeTreatments) List(context.Context) ([]*model.Treatment, error) {
	return nil, nil
}

// 2026-09-07 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, time.September, 7, hour, minute, 0, 0, time.UTC)
}

func block(weekday, start, end string) *model.AvailabilityBlock {
	return &model.AvailabilityBlock{
		ID:        uuid.New(),
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
	}
}

func newService(availability *fakeAvailability, appointments *fakeAppointments) *Service {
	return NewService(appointments, availability, &fakeTreatments{}, metrics.New("test"))
}

func TestFreeSlotsSingleBlock(t *testing.T) {
	svc := newService(
		&fakeAvailability{blocks: []*model.AvailabilityBlock{block("monday", "09:00", "10:00")}},
		&fakeAppointments{},
	)

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), monday(0, 0), 30)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, monday(9, 0), slots[0].StartTime)
	assert.Equal(t, monday(9, 30), slots[0].EndTime)
	assert.Equal(t, monday(9, 30), slots[1].StartTime)
	assert.Equal(t, monday(10, 0), slots[1].EndTime)
}

func TestFreeSlotsSkipsBookedWindows(t *testing.T) {
	therapistID := uuid.New()
	svc := newService(
		&fakeAvailability{blocks: []*model.AvailabilityBlock{block("monday", "09:00", "11:00")}},
		&fakeAppointments{scheduled: []*model.Appointment{{
			ID:          uuid.New(),
			TherapistID: therapistID,
			StartTime:   monday(9, 30),
			EndTime:     monday(10, 0),
			Status:      model.AppointmentStatusScheduled,
		}}},
	)

	slots, err := svc.FreeSlots(context.Background(), therapistID, monday(0, 0), 30)
	require.NoError(t, err)

	require.Len(t, slots, 3)
	assert.Equal(t, monday(9, 0), slots[0].StartTime)
	assert.Equal(t, monday(10, 0), slots[1].StartTime)
	assert.Equal(t, monday(10, 30), slots[2].StartTime)
}

func TestFreeSlotsDurationTooLongForBlock(t *testing.T) {
	svc := newService(
		&fakeAvailability{blocks: []*model.AvailabilityBlock{block("monday", "09:00", "10:00")}},
		&fakeAppointments{},
	)

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), monday(0, 0), 90)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFreeSlotsChronologicalAcrossBlocks(t *testing.T) {
	svc := newService(
		&fakeAvailability{blocks: []*model.AvailabilityBlock{
			block("monday", "14:00", "15:00"),
			block("monday", "09:00", "10:00"),
		}},
		&fakeAppointments{},
	)

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), monday(0, 0), 60)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, monday(9, 0), slots[0].StartTime)
	assert.Equal(t, monday(14, 0), slots[1].StartTime)
}

func TestFreeSlotsIgnoresMalformedBlocks(t *testing.T) {
	svc := newService(
		&fakeAvailability{blocks: []*model.AvailabilityBlock{
			block("monday", "9am", "10am"),
			block("monday", "14:00", "15:00"),
			block("monday", "09:00", "10:00"),
		}},
		&fakeAppointments{},
	)

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), monday(0, 0), 60)
	require.NoError(t, err)

	// The unparseable block contributes nothing and does not disturb the
	// chronological order of the valid ones.
	require.Len(t, slots, 2)
	assert.Equal(t, monday(9, 0), slots[0].StartTime)
	assert.Equal(t, monday(14, 0), slots[1].StartTime)
}

func TestFreeSlotsNoAvailability(t *testing.T) {
	svc := newService(&fakeAvailability{}, &fakeAppointments{})

	slots, err := svc.FreeSlots(context.Background(), uuid.New(), monday(0, 0), 30)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestFreeSlotsRejectsNonPositiveDuration(t *testing.T) {
	svc := newService(&fakeAvailability{}, &fakeAppointments{})

	_, err := svc.FreeSlots(context.Background(), uuid.New(), monday(0, 0), 0)
	assert.True(t, apperrors.IsInvalidWindow(err))
}

func TestDailyAvailabilityGrid(t *testing.T) {
	therapistID := uuid.New()
	svc := newService(
		&fakeAvailability{},
		&fakeAppointments{scheduled: []*model.Appointment{{
			ID:          uuid.New(),
			TherapistID: therapistID,
			StartTime:   monday(10, 0),
			EndTime:     monday(10, 45),
			Status:      model.AppointmentStatusScheduled,
		}}},
	)

	grid, err := svc.DailyAvailability(context.Background(), therapistID, monday(0, 0))
	require.NoError(t, err)
	require.Len(t, grid, 48)

	byStart := map[time.Time]bool{}
	for _, cell := range grid {
		byStart[cell.Start] = cell.Available
	}

	assert.False(t, byStart[monday(10, 0)])
	assert.False(t, byStart[monday(10, 30)], "partially overlapped cell is unavailable")
	assert.True(t, byStart[monday(9, 30)])
	assert.True(t, byStart[monday(11, 0)])
}

func TestFreeSlotsForTreatmentUsesTreatmentDuration(t *testing.T) {
	treatmentID := uuid.New()
	svc := NewService(
		&fakeAppointments{},
		&fakeAvailability{blocks: []*model.AvailabilityBlock{block("monday", "09:00", "10:30")}},
		&fakeTreatments{treatments: map[uuid.UUID]*model.Treatment{
			treatmentID: {ID: treatmentID, DurationMinutes: 45},
		}},
		metrics.New("test"),
	)

	slots, err := svc.FreeSlotsForTreatment(context.Background(), uuid.New(), treatmentID, monday(0, 0))
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, monday(9, 45), slots[1].StartTime)
}
