package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", ValidationFailed("email", "email is required"), ErrValidation},
		{"conflict", Conflict("username taken"), ErrConflict},
		{"unauthorized", Unauthorized("invalid credentials"), ErrUnauthorized},
		{"not found", NotFound("user", "abc"), ErrNotFound},
		{"internal", Internal("store inconsistency"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
		})
	}
}

// Service code wraps AppErrors with fmt.Errorf("...: %w", err); both Is and
// As must still see through the wrapping.
func TestWrappedMatching(t *testing.T) {
	inner := Unauthorized("invalid credentials")
	wrapped := fmt.Errorf("service: logging in: %w", inner)

	if !errors.Is(wrapped, ErrUnauthorized) {
		t.Error("errors.Is should match through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract the AppError through wrapping")
	}
	if appErr.Message != "invalid credentials" {
		t.Errorf("Message = %q, want %q", appErr.Message, "invalid credentials")
	}
}

func TestErrorMessage(t *testing.T) {
	err := ValidationFailed("username", "username is required")
	if err.Error() != "username is required" {
		t.Errorf("Error() = %q, want the message", err.Error())
	}
	if err.Field != "username" {
		t.Errorf("Field = %q, want %q", err.Field, "username")
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("channel", "ada")
	if err.Error() != "channel not found: ada" {
		t.Errorf("Error() = %q", err.Error())
	}
}
