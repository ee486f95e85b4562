package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrUnreadableInput  = errors.New("unreadable input")
	ErrInvalidEncoding  = errors.New("input is not valid UTF-8")
	ErrEmptyQuery       = errors.New("empty query")
	ErrNoStagedDocument = errors.New("no staged document for session")
	ErrBotDisabled      = errors.New("bot token is not configured")
)

// InputError wraps failures to read or decode the HTML document.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("input error for %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("input error: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// DeliveryError wraps failures talking to the messaging API.
type DeliveryError struct {
	Method     string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("delivery error for %s (status %d): %v", e.Method, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("delivery error for %s: %v", e.Method, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsRetryable reports whether the API call may succeed if repeated.
func (e *DeliveryError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// SessionError wraps failures in a session store backend.
type SessionError struct {
	Backend   string
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session error (%s, session=%s): %v", e.Backend, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
