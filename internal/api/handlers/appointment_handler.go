package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/careconnect/booking-backend/internal/application/services"
	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/domain/repositories"
	apperrors "github.com/careconnect/booking-backend/pkg/errors"
)

// BookingService defines the interface for appointment booking operations
type BookingService interface {
	BookAppointment(ctx context.Context, appointment *entities.Appointment) (*services.BookingResult, error)
	CancelAppointment(ctx context.Context, id string) (*entities.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*entities.Appointment, error)
	ListPatientAppointments(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error)
	ListProviderAppointments(ctx context.Context, providerID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error)
}

// AvailabilityService defines the interface for slot availability
type AvailabilityService interface {
	GetDayAvailability(date string) (*services.Availability, error)
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	booking      BookingService
	availability AvailabilityService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(booking BookingService, availability AvailabilityService) *AppointmentHandler {
	return &AppointmentHandler{
		booking:      booking,
		availability: availability,
	}
}

// GetAvailability handles GET /api/providers/{id}/availability
func (h *AppointmentHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		respondWithError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	availability, err := h.availability.GetDayAvailability(date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"provider_id": providerID,
		"date":        date,
		"slots":       availability.Slots,
		"periods":     availability.Periods,
	})
}

// BookAppointment handles POST /api/appointments
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var appointment entities.Appointment
	if err := json.NewDecoder(r.Body).Decode(&appointment); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.booking.BookAppointment(r.Context(), &appointment)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

// CancelAppointment handles POST /api/appointments/{id}/cancel
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.booking.CancelAppointment(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// GetAppointment handles GET /api/appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.booking.GetAppointment(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// ListPatientAppointments handles GET /api/patients/{id}/appointments
func (h *AppointmentHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	appointments, err := h.booking.ListPatientAppointments(r.Context(), patientID, filterFromQuery(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
	})
}

// ListProviderAppointments handles GET /api/providers/{id}/appointments
func (h *AppointmentHandler) ListProviderAppointments(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	appointments, err := h.booking.ListProviderAppointments(r.Context(), providerID, filterFromQuery(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
	})
}

// filterFromQuery builds the listing filter from query parameters. Malformed
// values are ignored rather than rejected; an unfiltered listing is a valid
// response.
func filterFromQuery(r *http.Request) repositories.AppointmentFilter {
	q := r.URL.Query()
	filter := repositories.AppointmentFilter{
		Status: entities.AppointmentStatus(q.Get("status")),
	}

	if t, err := parseFilterTime(q.Get("from")); err == nil {
		filter.From = &t
	}
	if t, err := parseFilterTime(q.Get("to")); err == nil {
		filter.To = &t
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		filter.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		filter.Offset = n
	}

	return filter
}

// parseFilterTime accepts RFC3339 or a bare date
func parseFilterTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// respondWithServiceError maps service errors to HTTP responses. Validation
// failures carry their code and field so the client can highlight the input.
func respondWithServiceError(w http.ResponseWriter, err error) {
	if valErr, ok := err.(*services.ValidationError); ok {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": valErr.Message,
			"code":  valErr.Code,
			"field": valErr.Field,
		})
		return
	}

	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		case apperrors.ErrorTypeUnauthorized:
			respondWithError(w, http.StatusUnauthorized, appErr.Message)
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, appErr.Message)
		}
		return
	}

	respondWithError(w, http.StatusInternalServerError, err.Error())
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
