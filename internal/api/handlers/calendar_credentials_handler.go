package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/domain/repositories"
)

// CalendarCredentialsHandler manages per-patient calendar OAuth credentials
type CalendarCredentialsHandler struct {
	credRepo repositories.CalendarCredentialRepository
}

// NewCalendarCredentialsHandler creates a new calendar credentials handler
func NewCalendarCredentialsHandler(credRepo repositories.CalendarCredentialRepository) *CalendarCredentialsHandler {
	return &CalendarCredentialsHandler{credRepo: credRepo}
}

type setCredentialsRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SetCredentials handles PUT /api/patients/{id}/calendar/credentials.
// It stores the token pair obtained from the provider's consent flow.
func (h *CalendarCredentialsHandler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	var req setCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		respondWithError(w, http.StatusBadRequest, "access_token and refresh_token are required")
		return
	}

	credential := &entities.CalendarCredential{
		PatientID:    patientID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}

	if err := h.credRepo.Save(r.Context(), credential); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "connected",
	})
}

// DeleteCredentials handles DELETE /api/patients/{id}/calendar/credentials
func (h *CalendarCredentialsHandler) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	if err := h.credRepo.Delete(r.Context(), patientID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "disconnected",
	})
}
