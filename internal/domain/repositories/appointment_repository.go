package repositories

import (
	"context"
	"time"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations.
// Insert and UpdateCalendarMirror are deliberately two independent writes:
// the booking write is the durability boundary, the mirror patch is a later
// best-effort update that may never happen.
type AppointmentRepository interface {
	// Insert persists a new appointment
	Insert(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// UpdateStatus transitions an appointment's status
	UpdateStatus(ctx context.Context, id string, status entities.AppointmentStatus) error

	// UpdateCalendarMirror records the external calendar event for an appointment
	UpdateCalendarMirror(ctx context.Context, id string, eventID, eventLink string) error

	// ListByPatient retrieves appointments for a patient
	ListByPatient(ctx context.Context, patientID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// ListByProvider retrieves appointments for a provider
	ListByProvider(ctx context.Context, providerID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// CompleteElapsed flips pending/confirmed appointments whose start time has
	// passed the cutoff to completed, returning the number of rows updated
	CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
