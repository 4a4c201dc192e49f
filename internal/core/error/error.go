package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "not found"
	// CompletionErrorMessage describes a failed LLM completion round-trip.
	CompletionErrorMessage = "completion request failed"
	// TurnInFlightMessage describes a rejected concurrent turn on one session.
	TurnInFlightMessage = "a turn is already in progress for this session"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapCompletion marks an error as a completion-client failure. The turn that
// observes it aborts without committing state, so the caller can safely retry
// the same input.
func WrapCompletion(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, CompletionErrorMessage)
}

// TurnInFlight reports that a concurrent turn was rejected for a session key.
func TurnInFlight(sessionKey string) *AppError {
	return New(fmt.Errorf("session %s busy", sessionKey), http.StatusConflict, TurnInFlightMessage)
}

// IsCompletionFailure reports whether err is a completion-client failure.
func IsCompletionFailure(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Message == CompletionErrorMessage
}

// StatusOf extracts the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
