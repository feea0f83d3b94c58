package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

func credential(access, refresh string) *entities.CalendarCredential {
	return &entities.CalendarCredential{
		PatientID:    "patient-1",
		AccessToken:  access,
		RefreshToken: refresh,
	}
}

func TestSetCredentials(t *testing.T) {
	m := NewTokenManager("client-1", "secret", "http://localhost", nil)
	assert.Equal(t, "", m.AccessToken())

	m.SetCredentials("access-1", "refresh-1")
	assert.Equal(t, "access-1", m.AccessToken())
}

func TestRefreshSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		assert.Equal(t, "client-1", r.Form.Get("client_id"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	m := NewTokenManager("client-1", "secret", server.URL, credential("old-access", "old-refresh"))

	pair, err := m.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
	assert.Equal(t, "new-access", m.AccessToken())
}

func TestRefreshKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "new-access",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	m := NewTokenManager("client-1", "secret", server.URL, credential("old-access", "old-refresh"))

	pair, err := m.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "old-refresh", pair.RefreshToken)
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	m := NewTokenManager("client-1", "secret", "http://unused", credential("old-access", ""))

	_, err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestRefreshInvalidGrantIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Token has been expired or revoked.",
		})
	}))
	defer server.Close()

	m := NewTokenManager("client-1", "secret", server.URL, credential("old-access", "old-refresh"))

	_, err := m.Refresh(context.Background())
	refreshErr, ok := err.(*RefreshError)
	assert.True(t, ok, "expected RefreshError, got %v", err)
	assert.True(t, refreshErr.Terminal)
	assert.Equal(t, "invalid_grant", refreshErr.Code)
}

func TestRefreshServerErrorIsNotTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewTokenManager("client-1", "secret", server.URL, credential("old-access", "old-refresh"))

	_, err := m.Refresh(context.Background())
	refreshErr, ok := err.(*RefreshError)
	assert.True(t, ok)
	assert.False(t, refreshErr.Terminal)
}
