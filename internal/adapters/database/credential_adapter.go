package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/domain/repositories"
	"github.com/careconnect/booking-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/careconnect/booking-backend/pkg/errors"
)

// CredentialAdapter implements the CalendarCredentialRepository interface
type CredentialAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCredentialAdapter creates a new calendar credential adapter
func NewCredentialAdapter(client *postgres.Client) repositories.CalendarCredentialRepository {
	return &CredentialAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Get retrieves the calendar credential for a patient
func (a *CredentialAdapter) Get(ctx context.Context, patientID string) (*entities.CalendarCredential, error) {
	query, args, err := a.db.Select(
		"patient_id", "access_token", "refresh_token", "created_at", "updated_at",
	).From("calendar_credentials").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	credential := &entities.CalendarCredential{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&credential.PatientID,
		&credential.AccessToken,
		&credential.RefreshToken,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no calendar credential for patient %s", patientID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get calendar credential", err)
	}

	return credential, nil
}

// Save inserts or replaces the calendar credential for a patient. Refreshed
// tokens are persisted through this path before any retry is attempted.
func (a *CredentialAdapter) Save(ctx context.Context, credential *entities.CalendarCredential) error {
	if credential == nil || credential.PatientID == "" {
		return apperrors.NewValidationError("calendar credential with patient id is required")
	}

	now := time.Now()
	query := `
		INSERT INTO calendar_credentials
			(patient_id, access_token, refresh_token, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = EXCLUDED.updated_at
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		credential.PatientID, credential.AccessToken, credential.RefreshToken, now, now,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to save calendar credential", err)
	}

	return nil
}

// Delete removes the calendar credential for a patient
func (a *CredentialAdapter) Delete(ctx context.Context, patientID string) error {
	query, args, err := a.db.Delete("calendar_credentials").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete calendar credential", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("no calendar credential for patient %s", patientID))
	}

	return nil
}
