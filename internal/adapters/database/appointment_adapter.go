package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/domain/repositories"
	"github.com/careconnect/booking-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careconnect/booking-backend/pkg/errors"
)

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var appointmentColumns = []interface{}{
	"id", "patient_id", "provider_id", "service_id",
	"provider_name", "provider_address", "service_name",
	"date", "time", "period", "appointment_type",
	"patient_name", "patient_phone", "patient_email", "notes",
	"insurance_plan_id", "estimated_cost", "status",
	"calendar_event_id", "calendar_event_link", "starts_at",
	"created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var patientPhone, notes sql.NullString
	var insurancePlanID, calendarEventID, calendarEventLink sql.NullString

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.ProviderID,
		&appointment.ServiceID,
		&appointment.ProviderName,
		&appointment.ProviderAddress,
		&appointment.ServiceName,
		&appointment.Date,
		&appointment.Time,
		&appointment.Period,
		&appointment.Type,
		&appointment.PatientName,
		&patientPhone,
		&appointment.PatientEmail,
		&notes,
		&insurancePlanID,
		&appointment.EstimatedCost,
		&appointment.Status,
		&calendarEventID,
		&calendarEventLink,
		&appointment.StartsAt,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appointment.PatientPhone = patientPhone.String
	appointment.Notes = notes.String
	if insurancePlanID.Valid {
		appointment.InsurancePlanID = &insurancePlanID.String
	}
	if calendarEventID.Valid {
		appointment.CalendarEventID = &calendarEventID.String
	}
	if calendarEventLink.Valid {
		appointment.CalendarLink = &calendarEventLink.String
	}

	return appointment, nil
}

// Insert persists a new appointment
func (a *AppointmentAdapter) Insert(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"id":                  appointment.ID,
		"patient_id":          appointment.PatientID,
		"provider_id":         appointment.ProviderID,
		"service_id":          appointment.ServiceID,
		"provider_name":       appointment.ProviderName,
		"provider_address":    appointment.ProviderAddress,
		"service_name":        appointment.ServiceName,
		"date":                appointment.Date,
		"time":                appointment.Time,
		"period":              appointment.Period,
		"appointment_type":    appointment.Type,
		"patient_name":        appointment.PatientName,
		"patient_phone":       appointment.PatientPhone,
		"patient_email":       appointment.PatientEmail,
		"notes":               appointment.Notes,
		"insurance_plan_id":   appointment.InsurancePlanID,
		"estimated_cost":      appointment.EstimatedCost,
		"status":              appointment.Status,
		"calendar_event_id":   appointment.CalendarEventID,
		"calendar_event_link": appointment.CalendarLink,
		"starts_at":           appointment.StartsAt,
		"created_at":          appointment.CreatedAt,
		"updated_at":          appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}

	return appointment, nil
}

// UpdateStatus transitions an appointment's status
func (a *AppointmentAdapter) UpdateStatus(ctx context.Context, id string, status entities.AppointmentStatus) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update appointment status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}

	return nil
}

// UpdateCalendarMirror records the external calendar event for an appointment
func (a *AppointmentAdapter) UpdateCalendarMirror(ctx context.Context, id string, eventID, eventLink string) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"calendar_event_id":   eventID,
			"calendar_event_link": eventLink,
			"updated_at":          time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build mirror update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update calendar mirror", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}

	return nil
}

// ListByPatient retrieves appointments for a patient
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return a.list(ctx, goqu.Ex{"patient_id": patientID}, filter)
}

// ListByProvider retrieves appointments for a provider
func (a *AppointmentAdapter) ListByProvider(ctx context.Context, providerID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return a.list(ctx, goqu.Ex{"provider_id": providerID}, filter)
}

func (a *AppointmentAdapter) list(ctx context.Context, where goqu.Ex, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(where)

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	if filter.From != nil {
		ds = ds.Where(goqu.C("starts_at").Gte(*filter.From))
	}

	if filter.To != nil {
		ds = ds.Where(goqu.C("starts_at").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("starts_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}

	return appointments, nil
}

// CompleteElapsed flips pending and confirmed appointments whose start time
// has passed the cutoff to completed
func (a *AppointmentAdapter) CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"status":     entities.AppointmentStatusCompleted,
			"updated_at": time.Now(),
		}).
		Where(
			goqu.C("status").In(entities.AppointmentStatusPending, entities.AppointmentStatusConfirmed),
			goqu.C("starts_at").Lte(cutoff),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build completion query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to complete elapsed appointments", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rowsAffected, nil
}
