package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// AppointmentEventType represents the type of appointment event
type AppointmentEventType string

const (
	AppointmentEventTypeBooked         AppointmentEventType = "booked"
	AppointmentEventTypeCancelled      AppointmentEventType = "cancelled"
	AppointmentEventTypeCompleted      AppointmentEventType = "completed"
	AppointmentEventTypeCalendarSynced AppointmentEventType = "calendar_synced"
)

// AppointmentEvent represents a real-time update event for an appointment
type AppointmentEvent struct {
	ID            string                 `json:"id"`
	AppointmentID string                 `json:"appointment_id"`
	PatientID     string                 `json:"patient_id"`
	ProviderID    string                 `json:"provider_id"`
	EventType     AppointmentEventType   `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields"`
}

// NewAppointmentEvent creates a new appointment event
func NewAppointmentEvent(appointment *Appointment, eventType AppointmentEventType, changedFields map[string]interface{}) *AppointmentEvent {
	return &AppointmentEvent{
		ID:            generateEventID(),
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		ProviderID:    appointment.ProviderID,
		EventType:     eventType,
		Timestamp:     time.Now(),
		ChangedFields: changedFields,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
