package providers

import (
	"errors"
	"fmt"
)

// MirrorFailure distinguishes how a calendar mirror operation failed
type MirrorFailure string

const (
	// MirrorFailureTransient covers provider outages, timeouts and other
	// retryable failures
	MirrorFailureTransient MirrorFailure = "mirror_failed"

	// MirrorFailureReauthorization means the stored credential is dead and
	// the patient must reconnect their calendar account
	MirrorFailureReauthorization MirrorFailure = "requires_reauthorization"
)

// MirrorError is the only error type a CalendarProvider surfaces. The
// failure tag, not the message text, is the classification contract.
type MirrorError struct {
	Op      string
	Failure MirrorFailure
	Err     error
}

// Error implements the error interface
func (e *MirrorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar %s: %s: %v", e.Op, e.Failure, e.Err)
	}
	return fmt.Sprintf("calendar %s: %s", e.Op, e.Failure)
}

// Unwrap implements the unwrap interface
func (e *MirrorError) Unwrap() error {
	return e.Err
}

// NewMirrorError creates a transient mirror error
func NewMirrorError(op string, err error) *MirrorError {
	return &MirrorError{Op: op, Failure: MirrorFailureTransient, Err: err}
}

// NewReauthorizationError creates a mirror error that requires the patient
// to reconnect their calendar
func NewReauthorizationError(op string, err error) *MirrorError {
	return &MirrorError{Op: op, Failure: MirrorFailureReauthorization, Err: err}
}

// RequiresReauthorization reports whether err is a mirror error whose only
// remedy is a new authorization grant
func RequiresReauthorization(err error) bool {
	var me *MirrorError
	return errors.As(err, &me) && me.Failure == MirrorFailureReauthorization
}
