package repositories

import (
	"context"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

// CalendarCredentialRepository defines the interface for per-patient OAuth2
// credential storage
type CalendarCredentialRepository interface {
	// Get retrieves the credential for a patient
	Get(ctx context.Context, patientID string) (*entities.CalendarCredential, error)

	// Save creates or replaces the credential for a patient. Called after
	// every successful refresh so a rotated refresh token is never lost.
	Save(ctx context.Context, credential *entities.CalendarCredential) error

	// Delete removes the credential for a patient (calendar disconnect)
	Delete(ctx context.Context, patientID string) error
}
