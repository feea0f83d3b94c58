package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

func validDraft() *entities.Appointment {
	return &entities.Appointment{
		Date:         "2026-06-12",
		Time:         "2:00",
		Period:       entities.PeriodPM,
		PatientName:  "Ada Obi",
		PatientEmail: "ada@example.com",
	}
}

func newTestValidator(now time.Time) *BookingValidator {
	return NewBookingValidator(1, time.UTC).
		WithClock(func() time.Time { return now })
}

func TestValidateAcceptsValidBooking(t *testing.T) {
	v := newTestValidator(at(2026, 6, 10, 10, 0))
	assert.NoError(t, v.Validate(validDraft()))
}

func TestValidateMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entities.Appointment)
		field  string
	}{
		{"missing date", func(a *entities.Appointment) { a.Date = "" }, "date"},
		{"missing time", func(a *entities.Appointment) { a.Time = "" }, "time"},
		{"missing period", func(a *entities.Appointment) { a.Period = "" }, "period"},
		{"missing patient name", func(a *entities.Appointment) { a.PatientName = "" }, "patient_name"},
		{"missing patient email", func(a *entities.Appointment) { a.PatientEmail = "" }, "patient_email"},
	}

	v := newTestValidator(at(2026, 6, 10, 10, 0))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(draft)

			err := v.Validate(draft)
			valErr, ok := err.(*ValidationError)
			assert.True(t, ok, "expected ValidationError, got %v", err)
			assert.Equal(t, CodeMissingField, valErr.Code)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestValidateBusinessHours(t *testing.T) {
	tests := []struct {
		name    string
		clock   string
		period  entities.Period
		allowed bool
	}{
		{"one minute before opening", "8:59", entities.PeriodAM, false},
		{"opening time", "9:00", entities.PeriodAM, true},
		{"closing time", "5:00", entities.PeriodPM, true},
		{"one minute after closing", "5:01", entities.PeriodPM, false},
		{"late evening", "8:00", entities.PeriodPM, false},
		{"early morning", "7:00", entities.PeriodAM, false},
	}

	v := newTestValidator(at(2026, 6, 10, 10, 0))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			draft.Time = tt.clock
			draft.Period = tt.period

			err := v.Validate(draft)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			valErr, ok := err.(*ValidationError)
			assert.True(t, ok, "expected ValidationError, got %v", err)
			assert.Equal(t, CodeOutsideBusinessHours, valErr.Code)
		})
	}
}

func TestValidateUnparseableTimeRejectedAsOutsideHours(t *testing.T) {
	v := newTestValidator(at(2026, 6, 10, 10, 0))
	draft := validDraft()
	draft.Time = "nonsense"

	err := v.Validate(draft)
	valErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, CodeOutsideBusinessHours, valErr.Code)
}

func TestValidateAdvanceNotice(t *testing.T) {
	// Now is 10:00; with one hour notice a same-day 10:30 slot is too soon.
	v := newTestValidator(at(2026, 6, 10, 10, 0))
	draft := validDraft()
	draft.Date = "2026-06-10"
	draft.Time = "10:30"
	draft.Period = entities.PeriodAM

	err := v.Validate(draft)
	valErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, CodeInsufficientNotice, valErr.Code)
	assert.Contains(t, valErr.Message, "10:00 AM", "message should carry the current time")
}

func TestValidateAdvanceNoticeBoundary(t *testing.T) {
	// Exactly minAdvanceHours ahead is allowed.
	v := newTestValidator(at(2026, 6, 10, 10, 0))
	draft := validDraft()
	draft.Date = "2026-06-10"
	draft.Time = "11:00"
	draft.Period = entities.PeriodAM

	assert.NoError(t, v.Validate(draft))
}

func TestValidatePastDate(t *testing.T) {
	v := newTestValidator(at(2026, 6, 10, 10, 0))
	draft := validDraft()
	draft.Date = "2026-06-09"

	err := v.Validate(draft)
	valErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	// A past start is inside the notice window too, and notice is checked
	// first.
	assert.Equal(t, CodeInsufficientNotice, valErr.Code)
}

func TestValidateSameDayMorningAfterNoon(t *testing.T) {
	v := newTestValidator(at(2026, 6, 10, 13, 0))
	draft := validDraft()
	draft.Date = "2026-06-10"
	draft.Time = "11:00"
	draft.Period = entities.PeriodAM

	err := v.Validate(draft)
	valErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, CodeInsufficientNotice, valErr.Code)
}

func TestValidateInvalidDateFormat(t *testing.T) {
	v := newTestValidator(at(2026, 6, 10, 10, 0))
	draft := validDraft()
	draft.Date = "12/06/2026"

	err := v.Validate(draft)
	valErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, CodeMissingField, valErr.Code)
	assert.Equal(t, "date", valErr.Field)
}
