package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/careconnect/booking-backend/internal/domain/entities"
)

// ErrNoRefreshToken means the stored credential has no refresh token, so the
// expired access token cannot be recovered without the patient reconnecting.
var ErrNoRefreshToken = errors.New("no refresh token available")

// RefreshError is a failed refresh-token grant. Terminal distinguishes a
// revoked or expired grant (the patient must reauthorize) from a transient
// failure that a later attempt may survive.
type RefreshError struct {
	StatusCode int
	Code       string
	Terminal   bool
}

// Error implements the error interface
func (e *RefreshError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token refresh failed: %s (status %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("token refresh failed: status %d", e.StatusCode)
}

// TokenManager holds a patient's OAuth2 token pair and exchanges the refresh
// token for a new access token when the current one is rejected. A manager is
// built per request from the stored credential; Refresh is still serialized
// in case the same manager is shared across the create/retry pair.
type TokenManager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	client       *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewTokenManager creates a token manager for one patient's credential
func NewTokenManager(clientID, clientSecret, tokenURL string, credential *entities.CalendarCredential) *TokenManager {
	m := &TokenManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
	if credential != nil {
		m.SetCredentials(credential.AccessToken, credential.RefreshToken)
	}
	return m
}

// SetCredentials replaces the stored token pair. No network call is made;
// the next Refresh uses the new refresh token.
func (m *TokenManager) SetCredentials(accessToken, refreshToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = accessToken
	m.refreshToken = refreshToken
}

// AccessToken returns the current access token
func (m *TokenManager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Refresh exchanges the refresh token for a new access token and returns the
// resulting pair. Providers that rotate refresh tokens return a new one; when
// the response omits it the previous refresh token is kept.
func (m *TokenManager) Refresh(ctx context.Context) (*entities.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	data := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"refresh_token": {m.refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp)
		return nil, &RefreshError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Error,
			Terminal:   errResp.Error == "invalid_grant" || resp.StatusCode == http.StatusUnauthorized,
		}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("parse refresh response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("refresh response contained no access token")
	}

	m.accessToken = tokenResp.AccessToken
	if tokenResp.RefreshToken != "" {
		m.refreshToken = tokenResp.RefreshToken
	}

	return &entities.TokenPair{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
	}, nil
}
