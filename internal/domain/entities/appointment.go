package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// IsTerminal reports whether the status admits no further transitions.
// Completed and cancelled appointments are never reopened; rows are never
// physically deleted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// AppointmentType represents the kind of visit being booked
type AppointmentType string

const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeProcedure    AppointmentType = "procedure"
	AppointmentTypeFollowUp     AppointmentType = "follow_up"
	AppointmentTypeEmergency    AppointmentType = "emergency"
)

// Period disambiguates a 12-hour clock time
type Period string

const (
	PeriodAM Period = "AM"
	PeriodPM Period = "PM"
)

// Business hours expressed as minutes of day: 09:00 through 17:00.
const (
	BusinessOpenMinute  = 9 * 60
	BusinessCloseMinute = 17 * 60
)

// Appointment is the authoritative booking record. Date, Time and Period
// carry the wall-clock selection exactly as the patient made it; StartsAt is
// the same instant materialized in the clinic time zone so that SQL-side
// comparisons (completion sweeps, listings) stay cheap.
type Appointment struct {
	ID              string            `json:"id" db:"id"`
	PatientID       string            `json:"patient_id" db:"patient_id"`
	ProviderID      string            `json:"provider_id" db:"provider_id"`
	ServiceID       string            `json:"service_id" db:"service_id"`
	ProviderName    string            `json:"provider_name" db:"provider_name"`
	ProviderAddress string            `json:"provider_address" db:"provider_address"`
	ServiceName     string            `json:"service_name" db:"service_name"`
	Date            string            `json:"date" db:"date"` // civil date, "2006-01-02"
	Time            string            `json:"time" db:"time"` // 12-hour wall clock, "3:04"
	Period          Period            `json:"period" db:"period"`
	Type            AppointmentType   `json:"appointment_type" db:"appointment_type"`
	PatientName     string            `json:"patient_name" db:"patient_name"`
	PatientPhone    string            `json:"patient_phone" db:"patient_phone"`
	PatientEmail    string            `json:"patient_email" db:"patient_email"`
	Notes           string            `json:"notes" db:"notes"`
	InsurancePlanID *string           `json:"insurance_plan_id,omitempty" db:"insurance_plan_id"`
	EstimatedCost   float64           `json:"estimated_cost" db:"estimated_cost"`
	Status          AppointmentStatus `json:"status" db:"status"`
	CalendarEventID *string           `json:"calendar_event_id,omitempty" db:"calendar_event_id"`
	CalendarLink    *string           `json:"calendar_event_link,omitempty" db:"calendar_event_link"`
	StartsAt        time.Time         `json:"starts_at" db:"starts_at"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// MinuteOfDay normalizes the appointment's 12-hour time and period to
// minutes since midnight.
func (a *Appointment) MinuteOfDay() (int, error) {
	return MinuteOfDay(a.Time, a.Period)
}

// StartTime resolves the appointment's date, time and period to a zoned
// instant in the given location.
func (a *Appointment) StartTime(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", a.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse appointment date %q: %w", a.Date, err)
	}
	minute, err := a.MinuteOfDay()
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, loc), nil
}

// MinuteOfDay converts a 12-hour clock value plus period to minutes since
// midnight. "12:00" AM is midnight, "12:00" PM is noon.
func MinuteOfDay(clock string, period Period) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected h:mm", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	if hour == 12 {
		hour = 0
	}
	if period == PeriodPM {
		hour += 12
	}
	return hour*60 + min, nil
}

// ClockOfMinute converts minutes since midnight back to the 12-hour clock
// representation and its period. It is the inverse of MinuteOfDay for every
// valid half-hour slot.
func ClockOfMinute(minute int) (string, Period) {
	period := PeriodAM
	hour := minute / 60
	if hour >= 12 {
		period = PeriodPM
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d", hour12, minute%60), period
}
