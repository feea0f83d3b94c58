package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/careconnect/booking-backend/internal/domain/entities"
	"github.com/careconnect/booking-backend/internal/domain/providers"
	"github.com/careconnect/booking-backend/internal/domain/repositories"
	"github.com/careconnect/booking-backend/pkg/config"
)

// GoogleCalendarAdapter implements CalendarProvider against the Google
// Calendar v3 events API, using each patient's stored OAuth2 credential.
//
// Tokens are loaded per call rather than held on the adapter, so concurrent
// calls for different patients never share mutable auth state. On an auth
// rejection the adapter refreshes, persists the new token pair, and retries
// the original request exactly once.
type GoogleCalendarAdapter struct {
	cfg      config.CalendarConfig
	credRepo repositories.CalendarCredentialRepository
	client   *http.Client
	loc      *time.Location
}

// NewGoogleCalendarAdapter creates a new Google Calendar adapter
func NewGoogleCalendarAdapter(cfg config.CalendarConfig, credRepo repositories.CalendarCredentialRepository, loc *time.Location) providers.CalendarProvider {
	return &GoogleCalendarAdapter{
		cfg:      cfg,
		credRepo: credRepo,
		client:   &http.Client{Timeout: 15 * time.Second},
		loc:      loc,
	}
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventReminders struct {
	UseDefault bool            `json:"useDefault"`
	Overrides  []eventReminder `json:"overrides,omitempty"`
}

type eventReminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type calendarEvent struct {
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       eventDateTime  `json:"start"`
	End         eventDateTime  `json:"end"`
	Reminders   eventReminders `json:"reminders"`
}

type calendarEventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
	Status   string `json:"status"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *GoogleCalendarAdapter) eventPayload(appointment *entities.Appointment) (*calendarEvent, error) {
	start, err := appointment.StartTime(g.loc)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Hour)

	description := fmt.Sprintf(
		"Appointment: %s\nProvider: %s\nPatient: %s\nDate: %s\nTime: %s %s\nLocation: %s",
		appointment.ServiceName,
		appointment.ProviderName,
		appointment.PatientName,
		appointment.Date,
		appointment.Time,
		appointment.Period,
		appointment.ProviderAddress,
	)
	if appointment.InsurancePlanID != nil && *appointment.InsurancePlanID != "" {
		description += "\nInsurance plan: " + *appointment.InsurancePlanID
	}
	if appointment.EstimatedCost > 0 {
		description += fmt.Sprintf("\nEstimated cost: %.2f", appointment.EstimatedCost)
	}
	if appointment.Notes != "" {
		description += "\nNotes: " + appointment.Notes
	}
	description += "\nBooking reference: " + appointment.ID

	return &calendarEvent{
		Summary:     fmt.Sprintf("%s - %s", appointment.ServiceName, appointment.ProviderName),
		Description: description,
		Location:    appointment.ProviderAddress,
		Start:       eventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: g.loc.String()},
		End:         eventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: g.loc.String()},
		Reminders: eventReminders{
			UseDefault: false,
			Overrides: []eventReminder{
				{Method: "popup", Minutes: 120},
				{Method: "popup", Minutes: 60},
				{Method: "popup", Minutes: 30},
			},
		},
	}, nil
}

// CreateEvent mirrors an appointment as a new Google Calendar event
func (g *GoogleCalendarAdapter) CreateEvent(ctx context.Context, appointment *entities.Appointment) (*entities.CalendarEventRef, error) {
	const op = "calendar.create_event"

	payload, err := g.eventPayload(appointment)
	if err != nil {
		return nil, providers.NewMirrorError(op, err)
	}

	url := fmt.Sprintf("%s/calendars/primary/events", g.cfg.APIBaseURL)
	body, err := g.doWithAuth(ctx, op, appointment.PatientID, "POST", url, payload)
	if err != nil {
		return nil, err
	}

	var eventResp calendarEventResponse
	if err := json.Unmarshal(body, &eventResp); err != nil {
		return nil, providers.NewMirrorError(op, fmt.Errorf("parse event response: %w", err))
	}
	if eventResp.ID == "" {
		return nil, providers.NewMirrorError(op, fmt.Errorf("event response contained no id"))
	}

	return &entities.CalendarEventRef{
		EventID:   eventResp.ID,
		EventLink: eventResp.HTMLLink,
	}, nil
}

// UpdateEvent rewrites an existing event from appointment data
func (g *GoogleCalendarAdapter) UpdateEvent(ctx context.Context, eventID string, appointment *entities.Appointment) error {
	const op = "calendar.update_event"

	payload, err := g.eventPayload(appointment)
	if err != nil {
		return providers.NewMirrorError(op, err)
	}

	url := fmt.Sprintf("%s/calendars/primary/events/%s", g.cfg.APIBaseURL, eventID)
	_, err = g.doWithAuth(ctx, op, appointment.PatientID, "PUT", url, payload)
	return err
}

// DeleteEvent removes the external event. An event that is already gone
// counts as deleted.
func (g *GoogleCalendarAdapter) DeleteEvent(ctx context.Context, patientID, eventID string) error {
	const op = "calendar.delete_event"

	url := fmt.Sprintf("%s/calendars/primary/events/%s", g.cfg.APIBaseURL, eventID)
	_, err := g.doWithAuth(ctx, op, patientID, "DELETE", url, nil)
	return err
}

// doWithAuth performs an authenticated request for one patient. If the
// provider rejects the access token, it refreshes, persists the new pair,
// and retries the original request once. A second rejection, or a terminal
// refresh failure, surfaces as a reauthorization error.
func (g *GoogleCalendarAdapter) doWithAuth(ctx context.Context, op, patientID, method, url string, payload interface{}) ([]byte, error) {
	credential, err := g.credRepo.Get(ctx, patientID)
	if err != nil {
		return nil, providers.NewReauthorizationError(op, fmt.Errorf("load calendar credential: %w", err))
	}

	manager := NewTokenManager(g.cfg.ClientID, g.cfg.ClientSecret, g.cfg.TokenURL, credential)

	body, authFailed, err := g.do(ctx, op, method, url, manager.AccessToken(), payload)
	if err == nil || !authFailed {
		return body, err
	}

	pair, refreshErr := manager.Refresh(ctx)
	if refreshErr != nil {
		if isTerminalRefresh(refreshErr) {
			return nil, providers.NewReauthorizationError(op, refreshErr)
		}
		return nil, providers.NewMirrorError(op, refreshErr)
	}

	credential.AccessToken = pair.AccessToken
	credential.RefreshToken = pair.RefreshToken
	if saveErr := g.credRepo.Save(ctx, credential); saveErr != nil {
		return nil, providers.NewMirrorError(op, fmt.Errorf("persist refreshed tokens: %w", saveErr))
	}

	body, authFailed, err = g.do(ctx, op, method, url, pair.AccessToken, payload)
	if err != nil && authFailed {
		return nil, providers.NewReauthorizationError(op, err)
	}
	return body, err
}

// do performs one HTTP request. The second return reports whether the
// failure was an auth rejection eligible for refresh-and-retry.
func (g *GoogleCalendarAdapter) do(ctx context.Context, op, method, url, accessToken string, payload interface{}) ([]byte, bool, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, false, providers.NewMirrorError(op, fmt.Errorf("marshal event payload: %w", err))
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, false, providers.NewMirrorError(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		// Timeouts and transport failures are retryable later; the token may
		// be fine.
		return nil, false, providers.NewMirrorError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, providers.NewMirrorError(op, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, false, nil
	}

	// Deleting an event that no longer exists is not a failure.
	if method == "DELETE" && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone) {
		return body, false, nil
	}

	apiErr := fmt.Errorf("calendar api error (status %d): %s", resp.StatusCode, apiErrorMessage(body))
	if isAuthRejection(resp.StatusCode, body) {
		return nil, true, providers.NewMirrorError(op, apiErr)
	}
	return nil, false, providers.NewMirrorError(op, apiErr)
}

func apiErrorMessage(body []byte) string {
	var errResp googleErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// isAuthRejection decides whether a response means the access token was
// rejected. All expired-credential classification lives here so the
// refresh-and-retry path triggers on exactly one definition of "expired".
func isAuthRejection(statusCode int, body []byte) bool {
	if statusCode == http.StatusUnauthorized {
		return true
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "invalid_grant") || strings.Contains(lower, "invalid credentials")
}

func isTerminalRefresh(err error) bool {
	if err == ErrNoRefreshToken {
		return true
	}
	if refreshErr, ok := err.(*RefreshError); ok {
		return refreshErr.Terminal
	}
	return false
}
