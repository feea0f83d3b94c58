package services

import (
	"time"

	"github.com/careconnect/booking-backend/internal/domain/entities"
	apperrors "github.com/careconnect/booking-backend/pkg/errors"
)

// Slot is a discrete bookable half-hour wall-clock time
type Slot struct {
	Time   string          `json:"time"`
	Period entities.Period `json:"period"`
}

// Availability is the set of bookable slots for one calendar date, plus the
// AM/PM periods actually represented among them. A period with zero retained
// slots is absent, and UI callers must drop any previously selected
// period/slot no longer in the set.
type Availability struct {
	Slots   []Slot            `json:"slots"`
	Periods []entities.Period `json:"periods"`
}

// AvailabilityService computes bookable slots for a calendar date
type AvailabilityService struct {
	minAdvanceHours int
	loc             *time.Location
	now             func() time.Time
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(minAdvanceHours int, loc *time.Location) *AvailabilityService {
	return &AvailabilityService{
		minAdvanceHours: minAdvanceHours,
		loc:             loc,
		now:             time.Now,
	}
}

// WithClock overrides the wall clock, for tests
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	s.now = now
	return s
}

// GetDayAvailability returns the bookable slots for a civil date ("2006-01-02")
func (s *AvailabilityService) GetDayAvailability(date string) (*Availability, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date format (use YYYY-MM-DD)")
	}
	availability := ComputeAvailability(day, s.now().In(s.loc), s.minAdvanceHours)
	return &availability, nil
}

// ComputeAvailability returns the slots a patient may book on selectedDate
// as seen at instant now. Pure and deterministic: inject now rather than
// reading the wall clock.
//
// The advance-notice filter binds same-day selections only; any strictly
// future date returns the full business window. This mirrors the source
// policy deliberately (the validator still enforces notice at booking time).
func ComputeAvailability(selectedDate, now time.Time, minAdvanceHours int) Availability {
	selYear, selMonth, selDay := selectedDate.Date()
	nowYear, nowMonth, nowDay := now.Date()
	sel := time.Date(selYear, selMonth, selDay, 0, 0, 0, 0, time.UTC)
	today := time.Date(nowYear, nowMonth, nowDay, 0, 0, 0, 0, time.UTC)

	required := entities.BusinessOpenMinute
	switch {
	case sel.After(today):
		// future date: full window
	case sel.Equal(today):
		required = now.Hour()*60 + now.Minute() + minAdvanceHours*60
	default:
		// past date: nothing bookable
		required = entities.BusinessCloseMinute + 1
	}

	var availability Availability
	seen := map[entities.Period]bool{}
	for minute := entities.BusinessOpenMinute; minute <= entities.BusinessCloseMinute; minute += 30 {
		if minute < required {
			continue
		}
		clock, period := entities.ClockOfMinute(minute)
		availability.Slots = append(availability.Slots, Slot{Time: clock, Period: period})
		seen[period] = true
	}
	for _, period := range []entities.Period{entities.PeriodAM, entities.PeriodPM} {
		if seen[period] {
			availability.Periods = append(availability.Periods, period)
		}
	}
	return availability
}
