package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/domain/providers"
	"github.com/careconnect/booking-backend/internal/domain/repositories"
	apperrors "github.com/careconnect/booking-backend/pkg/errors"
)

// Notifier sends booking lifecycle messages to the patient
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, appointment *entities.Appointment) error
	SendCancellationNotice(ctx context.Context, appointment *entities.Appointment) error
}

// BookingWarnings reports side effects that failed after the booking itself
// was durably saved. The booking stands regardless of any of these.
type BookingWarnings struct {
	NotificationFailed     bool `json:"notification_failed,omitempty"`
	CalendarRequiresReauth bool `json:"calendar_requires_reauth,omitempty"`
	CalendarFailed         bool `json:"calendar_failed,omitempty"`
}

// Any reports whether at least one side effect failed
func (w BookingWarnings) Any() bool {
	return w.NotificationFailed || w.CalendarRequiresReauth || w.CalendarFailed
}

// BookingResult is the outcome of a successful booking
type BookingResult struct {
	Appointment *entities.Appointment `json:"appointment"`
	Warnings    BookingWarnings       `json:"warnings,omitempty"`
}

// BookingService orchestrates appointment booking: validation, persistence,
// patient notification and calendar mirroring
type BookingService struct {
	repo      repositories.AppointmentRepository
	validator *BookingValidator
	notifier  Notifier
	calendar  providers.CalendarProvider
	eventBus  providers.EventBus
	loc       *time.Location
}

// NewBookingService creates a new booking service. Notifier, calendar and
// event bus may be nil; the corresponding side effect is then skipped.
func NewBookingService(
	repo repositories.AppointmentRepository,
	validator *BookingValidator,
	notifier Notifier,
	calendar providers.CalendarProvider,
	eventBus providers.EventBus,
	loc *time.Location,
) *BookingService {
	return &BookingService{
		repo:      repo,
		validator: validator,
		notifier:  notifier,
		calendar:  calendar,
		eventBus:  eventBus,
		loc:       loc,
	}
}

// BookAppointment validates and persists a booking, then runs the
// notification and calendar mirror concurrently. The repository insert is the
// durability boundary: once it succeeds the booking is never rolled back, and
// side-effect failures surface only as warnings on the result.
func (s *BookingService) BookAppointment(ctx context.Context, appointment *entities.Appointment) (*BookingResult, error) {
	if err := s.validator.Validate(appointment); err != nil {
		return nil, err
	}

	startsAt, err := appointment.StartTime(s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	appointment.Status = entities.AppointmentStatusPending
	appointment.StartsAt = startsAt
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	if err := s.repo.Insert(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to save appointment: %w", err)
	}

	result := &BookingResult{Appointment: appointment}

	// The notifier goroutine reads the appointment while the calendar
	// goroutine runs, so the struct must stay read-only until both finish.
	// The mirror ref is collected here and attached after the wait.
	var mirrorRef *entities.CalendarEventRef

	var wg sync.WaitGroup
	var mu sync.Mutex

	if s.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.notifier.SendBookingConfirmation(ctx, appointment); err != nil {
				log.Printf("Warning: confirmation notification failed for appointment %s: %v", appointment.ID, err)
				mu.Lock()
				result.Warnings.NotificationFailed = true
				mu.Unlock()
			}
		}()
	}

	if s.calendar != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := s.calendar.CreateEvent(ctx, appointment)
			if err != nil {
				log.Printf("Warning: calendar mirror failed for appointment %s: %v", appointment.ID, err)
				mu.Lock()
				if providers.RequiresReauthorization(err) {
					result.Warnings.CalendarRequiresReauth = true
				} else {
					result.Warnings.CalendarFailed = true
				}
				mu.Unlock()
				return
			}
			// Second best-effort write. If it fails the external event is
			// orphaned, which cancellation tolerates.
			if err := s.repo.UpdateCalendarMirror(ctx, appointment.ID, ref.EventID, ref.EventLink); err != nil {
				log.Printf("Warning: failed to record calendar event %s for appointment %s: %v", ref.EventID, appointment.ID, err)
			} else {
				mu.Lock()
				mirrorRef = ref
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if mirrorRef != nil {
		appointment.CalendarEventID = &mirrorRef.EventID
		appointment.CalendarLink = &mirrorRef.EventLink
	}

	s.publish(ctx, appointment, entities.AppointmentEventTypeBooked, map[string]interface{}{
		"status": appointment.Status,
	})
	if appointment.CalendarEventID != nil {
		s.publish(ctx, appointment, entities.AppointmentEventTypeCalendarSynced, map[string]interface{}{
			"calendar_event_id": *appointment.CalendarEventID,
		})
	}

	return result, nil
}

// CancelAppointment cancels a booking and tears down its side effects in the
// mirror image of BookAppointment: the status transition is the durability
// boundary, calendar deletion and the cancellation notice are best-effort.
func (s *BookingService) CancelAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appointment.Status.IsTerminal() {
		return nil, apperrors.NewConflictError(fmt.Sprintf("appointment is already %s", appointment.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, entities.AppointmentStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	appointment.Status = entities.AppointmentStatusCancelled
	appointment.UpdatedAt = time.Now()

	if s.calendar != nil && appointment.CalendarEventID != nil {
		if err := s.calendar.DeleteEvent(ctx, appointment.PatientID, *appointment.CalendarEventID); err != nil {
			log.Printf("Warning: failed to delete calendar event %s for appointment %s: %v", *appointment.CalendarEventID, id, err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendCancellationNotice(ctx, appointment); err != nil {
			log.Printf("Warning: cancellation notice failed for appointment %s: %v", id, err)
		}
	}

	s.publish(ctx, appointment, entities.AppointmentEventTypeCancelled, map[string]interface{}{
		"status": entities.AppointmentStatusCancelled,
	})

	return appointment, nil
}

// GetAppointment retrieves a single appointment
func (s *BookingService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPatientAppointments lists a patient's appointments
func (s *BookingService) ListPatientAppointments(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID, filter)
}

// ListProviderAppointments lists a provider's appointments
func (s *BookingService) ListProviderAppointments(ctx context.Context, providerID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.repo.ListByProvider(ctx, providerID, filter)
}

func (s *BookingService) publish(ctx context.Context, appointment *entities.Appointment, eventType entities.AppointmentEventType, changed map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewAppointmentEvent(appointment, eventType, changed)
	for _, channel := range []string{
		providers.EventChannelAppointmentUpdates,
		providers.GetPatientChannel(appointment.PatientID),
		providers.GetProviderChannel(appointment.ProviderID),
	} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			log.Printf("Warning: failed to publish %s event for appointment %s: %v", eventType, appointment.ID, err)
		}
	}
}
