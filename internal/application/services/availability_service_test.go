package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestComputeAvailabilityFutureDate(t *testing.T) {
	got := ComputeAvailability(date(2026, 6, 15), at(2026, 6, 10, 16, 59), 1)

	assert.Len(t, got.Slots, 17)
	assert.Equal(t, Slot{Time: "9:00", Period: entities.PeriodAM}, got.Slots[0])
	assert.Equal(t, Slot{Time: "5:00", Period: entities.PeriodPM}, got.Slots[16])
	assert.Equal(t, []entities.Period{entities.PeriodAM, entities.PeriodPM}, got.Periods)
}

func TestComputeAvailabilitySameDay(t *testing.T) {
	t.Run("morning clock keeps later slots", func(t *testing.T) {
		// At 10:00 with one hour notice the earliest slot is 11:00.
		got := ComputeAvailability(date(2026, 6, 10), at(2026, 6, 10, 10, 0), 1)

		assert.Equal(t, Slot{Time: "11:00", Period: entities.PeriodAM}, got.Slots[0])
		assert.Len(t, got.Slots, 13)
		assert.Equal(t, []entities.Period{entities.PeriodAM, entities.PeriodPM}, got.Periods)
	})

	t.Run("cutoff between slots rounds forward", func(t *testing.T) {
		// At 10:10 the 11:00 slot is inside the notice window; 11:30 is next.
		got := ComputeAvailability(date(2026, 6, 10), at(2026, 6, 10, 10, 10), 1)

		assert.Equal(t, Slot{Time: "11:30", Period: entities.PeriodAM}, got.Slots[0])
	})

	t.Run("afternoon clock drops AM period entirely", func(t *testing.T) {
		got := ComputeAvailability(date(2026, 6, 10), at(2026, 6, 10, 12, 30), 1)

		for _, slot := range got.Slots {
			assert.Equal(t, entities.PeriodPM, slot.Period)
		}
		assert.Equal(t, []entities.Period{entities.PeriodPM}, got.Periods)
	})

	t.Run("after close nothing remains", func(t *testing.T) {
		got := ComputeAvailability(date(2026, 6, 10), at(2026, 6, 10, 16, 30), 1)

		assert.Empty(t, got.Slots)
		assert.Empty(t, got.Periods)
	})

	t.Run("zero advance notice keeps next slot", func(t *testing.T) {
		got := ComputeAvailability(date(2026, 6, 10), at(2026, 6, 10, 10, 0), 0)

		assert.Equal(t, Slot{Time: "10:00", Period: entities.PeriodAM}, got.Slots[0])
	})
}

func TestComputeAvailabilityPastDate(t *testing.T) {
	got := ComputeAvailability(date(2026, 6, 9), at(2026, 6, 10, 8, 0), 1)

	assert.Empty(t, got.Slots)
	assert.Empty(t, got.Periods)
}

func TestGetDayAvailability(t *testing.T) {
	svc := NewAvailabilityService(1, time.UTC).
		WithClock(func() time.Time { return at(2026, 6, 10, 10, 0) })

	t.Run("valid date", func(t *testing.T) {
		got, err := svc.GetDayAvailability("2026-06-11")
		assert.NoError(t, err)
		assert.Len(t, got.Slots, 17)
	})

	t.Run("invalid date format", func(t *testing.T) {
		_, err := svc.GetDayAvailability("11/06/2026")
		assert.Error(t, err)
	})
}
