package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Weekdays are stored as canonical lowercase day names.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// WeekdayName returns the canonical lowercase weekday for t's date.
func WeekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

func ValidWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// AvailabilityBlock is a recurring weekly open interval during which a
// therapist accepts bookings. Blocks are created and deleted, never updated.
type AvailabilityBlock struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TherapistID uuid.UUID `db:"therapist_id" json:"therapist_id"`
	Weekday     string    `db:"weekday" json:"weekday"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the wall-clock window [start, end] fits inside this
// single block. Only clock values are compared; the caller picks the block
// set from start's weekday, so windows spanning midnight are not stitched
// across days.
func (b *AvailabilityBlock) Covers(start, end time.Time) bool {
	blockStart, err := ParseClock(b.StartTime)
	if err != nil {
		return false
	}
	blockEnd, err := ParseClock(b.EndTime)
	if err != nil {
		return false
	}
	return blockStart <= MinutesOfDay(start) && blockEnd >= MinutesOfDay(end)
}

type CreateAvailabilityRequest struct {
	Weekday   string `json:"weekday" binding:"required" validate:"weekday"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// ParseClock parses a wall-clock "HH:MM" or "HH:MM:SS" string into minutes
// since midnight.
func ParseClock(s string) (int, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return h*60 + m, nil
}

// MinutesOfDay returns t's wall-clock position as minutes since midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
