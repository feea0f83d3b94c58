package services

import (
	"fmt"
	"time"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

// ValidationCode categorizes booking validation failures
type ValidationCode string

const (
	CodeMissingField         ValidationCode = "MISSING_FIELD"
	CodeOutsideBusinessHours ValidationCode = "OUTSIDE_BUSINESS_HOURS"
	CodeInsufficientNotice   ValidationCode = "INSUFFICIENT_ADVANCE_NOTICE"
	CodePastDateTime         ValidationCode = "PAST_DATE_TIME"
	CodePeriodElapsed        ValidationCode = "PERIOD_ELAPSED"
)

// ValidationError is a user-correctable booking rejection. Validation
// short-circuits on the first failed rule, so there is always exactly one.
type ValidationError struct {
	Code    ValidationCode
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// BookingValidator enforces business-hour, advance-notice and
// required-field rules before a booking is attempted
type BookingValidator struct {
	minAdvanceHours int
	loc             *time.Location
	now             func() time.Time
}

// NewBookingValidator creates a new booking validator
func NewBookingValidator(minAdvanceHours int, loc *time.Location) *BookingValidator {
	return &BookingValidator{
		minAdvanceHours: minAdvanceHours,
		loc:             loc,
		now:             time.Now,
	}
}

// WithClock overrides the wall clock, for tests
func (v *BookingValidator) WithClock(now func() time.Time) *BookingValidator {
	v.now = now
	return v
}

// Validate runs the rule sequence against a booking draft. Rules run in a
// fixed order and stop at the first failure; the UI renders one error at a
// time.
func (v *BookingValidator) Validate(appointment *entities.Appointment) error {
	if appointment.Date == "" {
		return &ValidationError{Code: CodeMissingField, Field: "date", Message: "please select a date"}
	}
	if appointment.Time == "" {
		return &ValidationError{Code: CodeMissingField, Field: "time", Message: "please select a time"}
	}
	if appointment.Period == "" {
		return &ValidationError{Code: CodeMissingField, Field: "period", Message: "please select AM or PM"}
	}

	minute, err := appointment.MinuteOfDay()
	if err != nil || minute < entities.BusinessOpenMinute || minute > entities.BusinessCloseMinute {
		return &ValidationError{
			Code:    CodeOutsideBusinessHours,
			Field:   "time",
			Message: "appointments are available between 9:00 AM and 5:00 PM",
		}
	}

	now := v.now().In(v.loc)
	start, err := appointment.StartTime(v.loc)
	if err != nil {
		return &ValidationError{Code: CodeMissingField, Field: "date", Message: "invalid date (use YYYY-MM-DD)"}
	}

	notice := time.Duration(v.minAdvanceHours) * time.Hour
	if start.Sub(now) < notice {
		return &ValidationError{
			Code:  CodeInsufficientNotice,
			Field: "time",
			Message: fmt.Sprintf("appointments must be booked at least %d hour(s) in advance (current time: %s)",
				v.minAdvanceHours, now.Format("3:04 PM MST")),
		}
	}

	if appointment.PatientName == "" {
		return &ValidationError{Code: CodeMissingField, Field: "patient_name", Message: "patient name is required"}
	}
	if appointment.PatientEmail == "" {
		return &ValidationError{Code: CodeMissingField, Field: "patient_email", Message: "patient email is required"}
	}

	// A start in the past, or a same-day AM slot after noon, always fails
	// the advance-notice check first (start.Sub(now) is negative), so the
	// two checks below cannot fire. They are deliberately kept as stricter
	// redundant guards should the notice rule ever be relaxed.
	if start.Before(now) {
		return &ValidationError{Code: CodePastDateTime, Field: "date", Message: "cannot book an appointment in the past"}
	}

	// Same-day AM slots stop being bookable once local noon has passed,
	// independently of the advance-notice arithmetic above.
	sameDay := start.Year() == now.Year() && start.YearDay() == now.YearDay()
	if sameDay && appointment.Period == entities.PeriodAM && now.Hour() >= 12 {
		return &ValidationError{
			Code:    CodePeriodElapsed,
			Field:   "period",
			Message: "morning slots for today are no longer available",
		}
	}

	return nil
}
