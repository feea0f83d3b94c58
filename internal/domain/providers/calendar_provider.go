package providers

import (
	"context"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

// CalendarProvider defines the interface for mirroring appointments into an
// external calendar service.
//
// CreateEvent is NOT idempotent: calling it twice for the same appointment
// after the first call succeeded produces two external events. Callers own
// the at-most-one-event invariant by persisting the returned ref before any
// retry at their level.
type CalendarProvider interface {
	// CreateEvent mirrors an appointment as a new external calendar event
	CreateEvent(ctx context.Context, appointment *entities.Appointment) (*entities.CalendarEventRef, error)

	// UpdateEvent rewrites an existing external event from appointment data
	UpdateEvent(ctx context.Context, eventID string, appointment *entities.Appointment) error

	// DeleteEvent removes the external event. Best-effort: callers must not
	// block any appointment state transition on its failure.
	DeleteEvent(ctx context.Context, patientID, eventID string) error
}
