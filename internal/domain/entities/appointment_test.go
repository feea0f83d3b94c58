package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinuteOfDay(t *testing.T) {
	tests := []struct {
		name    string
		clock   string
		period  Period
		want    int
		wantErr bool
	}{
		{name: "opening time", clock: "9:00", period: PeriodAM, want: 540},
		{name: "closing time", clock: "5:00", period: PeriodPM, want: 1020},
		{name: "noon", clock: "12:00", period: PeriodPM, want: 720},
		{name: "midnight", clock: "12:00", period: PeriodAM, want: 0},
		{name: "last morning slot", clock: "11:30", period: PeriodAM, want: 690},
		{name: "whitespace tolerated", clock: " 9:30 ", period: PeriodAM, want: 570},
		{name: "missing minutes", clock: "9", period: PeriodAM, wantErr: true},
		{name: "hour out of range", clock: "13:00", period: PeriodPM, wantErr: true},
		{name: "minute out of range", clock: "9:60", period: PeriodAM, wantErr: true},
		{name: "not a number", clock: "abc:00", period: PeriodAM, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinuteOfDay(tt.clock, tt.period)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockOfMinuteRoundTrip(t *testing.T) {
	// Every half-hour slot in the business window survives the round trip.
	for minute := BusinessOpenMinute; minute <= BusinessCloseMinute; minute += 30 {
		clock, period := ClockOfMinute(minute)
		back, err := MinuteOfDay(clock, period)
		assert.NoError(t, err)
		assert.Equal(t, minute, back, "round trip for %s %s", clock, period)
	}
}

func TestClockOfMinutePeriodBoundary(t *testing.T) {
	clock, period := ClockOfMinute(690)
	assert.Equal(t, "11:30", clock)
	assert.Equal(t, PeriodAM, period)

	clock, period = ClockOfMinute(720)
	assert.Equal(t, "12:00", clock)
	assert.Equal(t, PeriodPM, period)
}

func TestAppointmentStartTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	appointment := &Appointment{
		Date:   "2026-03-10",
		Time:   "2:30",
		Period: PeriodPM,
	}

	start, err := appointment.StartTime(loc)
	assert.NoError(t, err)
	assert.Equal(t, 14, start.Hour())
	assert.Equal(t, 30, start.Minute())
	assert.Equal(t, "America/New_York", start.Location().String())
}

func TestAppointmentStartTimeInvalidDate(t *testing.T) {
	appointment := &Appointment{Date: "10/03/2026", Time: "2:30", Period: PeriodPM}
	_, err := appointment.StartTime(time.UTC)
	assert.Error(t, err)
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.False(t, AppointmentStatusPending.IsTerminal())
	assert.False(t, AppointmentStatusConfirmed.IsTerminal())
	assert.False(t, AppointmentStatusNoShow.IsTerminal())
}
