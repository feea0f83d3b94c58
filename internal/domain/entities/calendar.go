package entities

import "time"

// CalendarCredential is the per-patient OAuth2 state for the external
// calendar provider. The access token is short-lived and may be stale at any
// read; consumers must be prepared for an expired-credential error and one
// refresh-and-retry. The refresh token is replaced only when the provider
// reissues one; losing a reissued refresh token makes the whole credential
// unrecoverable, so Save must run after every refresh that returns one.
type CalendarCredential struct {
	PatientID    string    `json:"patient_id" db:"patient_id"`
	AccessToken  string    `json:"access_token" db:"access_token"`
	RefreshToken string    `json:"refresh_token" db:"refresh_token"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TokenPair is the result of a token refresh. RefreshToken is empty when the
// provider did not rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CalendarEventRef identifies the mirrored event on the external calendar.
// At most one external event exists per appointment.
type CalendarEventRef struct {
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link"`
}
