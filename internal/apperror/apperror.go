// Package apperror defines the application's error taxonomy.
//
// Every failure the service layer surfaces wraps one of the sentinel errors
// below. HTTP handlers map sentinels to status codes in exactly one place
// (handler.writeError), so the services never know about HTTP and the
// handlers never inspect raw store or library errors.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

// AppError carries a sentinel (for errors.Is) plus a human-readable message
// that is safe to return to clients, never a password hash, token value, or
// library internals.
type AppError struct {
	Err     error  // sentinel from the set above
	Message string // human-readable, client-safe
	Field   string // optional: input field that caused a validation failure
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports malformed or missing input.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation (duplicate username or email).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized reports bad credentials or an invalid, expired, or reused
// token. Token verification failures are re-wrapped through here so the
// signing library's internals never leak to clients.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// NotFound reports a missing resource.
func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

// Internal reports an unexpected store or consistency failure. The message
// stays generic; details belong in the log, not the response.
func Internal(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}
