package slot

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const gridStepMinutes = 30

// Service enumerates bookable slots. It is a pure read path: results are a
// function of the current availability blocks and scheduled appointments.
type Service struct {
	appointments repository.AppointmentRepository
	availability repository.AvailabilityRepository
	treatments   repository.TreatmentRepository
	metrics      *metrics.Metrics
}

func NewService(
	appointments repository.AppointmentRepository,
	availability repository.AvailabilityRepository,
	treatments repository.TreatmentRepository,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointments: appointments,
		availability: availability,
		treatments:   treatments,
		metrics:      m,
	}
}

// FreeSlotsForTreatment resolves the treatment and enumerates slots of its
// duration on the given day.
func (s *Service) FreeSlotsForTreatment(ctx context.Context, therapistID, treatmentID uuid.UUID, day time.Time) ([]model.TimeSlot, error) {
	treatment, err := s.treatments.Get(ctx, treatmentID)
	if err != nil {
		return nil, err
	}
	return s.FreeSlots(ctx, therapistID, day, treatment.DurationMinutes)
}

// FreeSlots walks each availability block on day's weekday in duration-sized
// steps and emits every window free of conflicts with the day's scheduled
// appointments. Appointments are fetched once per call, not once per slot.
// Blocks are sorted by start time so the output is chronological.
func (s *Service) FreeSlots(ctx context.Context, therapistID uuid.UUID, day time.Time, durationMinutes int) ([]model.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, apperrors.InvalidWindow("slot duration must be positive")
	}
	s.metrics.SlotQueries.Inc()

	blocks, err := s.availability.ListForWeekday(ctx, therapistID, model.WeekdayName(day))
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return []model.TimeSlot{}, nil
	}

	dayStart := startOfDay(day)
	appointments, err := s.appointments.ListScheduledBetween(ctx, therapistID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	// Parse each block's clocks once, dropping malformed blocks before the
	// sort so they cannot influence the ordering.
	type window struct {
		start, end int
	}
	windows := make([]window, 0, len(blocks))
	for _, block := range blocks {
		blockStart, err := model.ParseClock(block.StartTime)
		if err != nil {
			continue
		}
		blockEnd, err := model.ParseClock(block.EndTime)
		if err != nil {
			continue
		}
		windows = append(windows, window{start: blockStart, end: blockEnd})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })

	duration := time.Duration(durationMinutes) * time.Minute
	slots := []model.TimeSlot{}

	for _, w := range windows {
		current := dayStart.Add(time.Duration(w.start) * time.Minute)
		end := dayStart.Add(time.Duration(w.end) * time.Minute)

		for !current.Add(duration).After(end) {
			slotEnd := current.Add(duration)
			if !anyOverlap(appointments, current, slotEnd) {
				slots = append(slots, model.TimeSlot{StartTime: current, EndTime: slotEnd})
			}
			current = slotEnd
		}
	}

	return slots, nil
}

// DailyAvailability returns the fixed 30-minute grid over the whole calendar
// day. Each cell's available flag comes from the conflict check alone; the
// recurring availability blocks are deliberately ignored here.
func (s *Service) DailyAvailability(ctx context.Context, therapistID uuid.UUID, day time.Time) ([]model.DailySlot, error) {
	dayStart := startOfDay(day)
	dayEnd := dayStart.Add(24 * time.Hour)

	appointments, err := s.appointments.ListScheduledBetween(ctx, therapistID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	slots := make([]model.DailySlot, 0, 24*60/gridStepMinutes)
	for current := dayStart; current.Before(dayEnd); current = current.Add(gridStepMinutes * time.Minute) {
		next := current.Add(gridStepMinutes * time.Minute)
		slots = append(slots, model.DailySlot{
			Start:     current,
			End:       next,
			Available: !anyOverlap(appointments, current, next),
		})
	}

	return slots, nil
}

func anyOverlap(appointments []*model.Appointment, start, end time.Time) bool {
	for _, appointment := range appointments {
		if appointment.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
