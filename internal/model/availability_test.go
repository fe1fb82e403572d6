package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"09:00:00", 540, false},
		{"23:59", 1439, false},
		{"00:00", 0, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWeekdayName(t *testing.T) {
	// 2026-09-07 is a Monday.
	assert.Equal(t, "monday", WeekdayName(time.Date(2026, 9, 7, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "sunday", WeekdayName(time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)))
}

func TestBlockCovers(t *testing.T) {
	block := &AvailabilityBlock{StartTime: "08:00", EndTime: "12:00"}
	day := func(h, m int) time.Time {
		return time.Date(2026, 9, 7, h, m, 0, 0, time.UTC)
	}

	assert.True(t, block.Covers(day(8, 0), day(12, 0)), "exact fit")
	assert.True(t, block.Covers(day(9, 0), day(10, 0)))
	assert.False(t, block.Covers(day(7, 30), day(8, 0)))
	assert.False(t, block.Covers(day(11, 30), day(12, 30)))
}

func TestAppointmentOverlapsIsHalfOpen(t *testing.T) {
	day := func(h, m int) time.Time {
		return time.Date(2026, 9, 7, h, m, 0, 0, time.UTC)
	}
	a := &Appointment{StartTime: day(10, 0), EndTime: day(10, 30)}

	assert.True(t, a.Overlaps(day(10, 15), day(10, 45)))
	assert.False(t, a.Overlaps(day(10, 30), day(11, 0)), "touching end does not overlap")
	assert.False(t, a.Overlaps(day(9, 30), day(10, 0)), "touching start does not overlap")
}
