package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/izzy/internal/agents"
	"github.com/stretchr/testify/assert"
)

func TestAuthErrors(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		err     error
		message string
		status  int
	}{
		{name: "email taken", err: &ErrEmailAlreadyExists{Email: "test@example.com"}, message: "email already registered: test@example.com", status: http.StatusConflict},
		{name: "bad credentials", err: &ErrInvalidCredentials{}, message: "invalid email or password", status: http.StatusUnauthorized},
		{name: "unknown user", err: &ErrUserNotFound{UserID: userID}, message: "user not found: " + userID.String(), status: http.StatusNotFound},
		{name: "wrong current password", err: &ErrPasswordMismatch{}, message: "current password is incorrect", status: http.StatusUnauthorized},
		{name: "validation", err: &ErrValidation{Field: "email", Message: "invalid format"}, message: "validation error: email - invalid format", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.message)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(nil))
}

func TestHTTPStatus_AgentErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "auth", err: &agents.AuthError{}, expected: http.StatusUnauthorized},
		{name: "not found", err: &agents.NotFoundError{Resource: "resume", ID: "r1"}, expected: http.StatusNotFound},
		{name: "config", err: &agents.ConfigError{Setting: "ASSISTANT_STRATEGIST_ID", Message: "not set"}, expected: http.StatusServiceUnavailable},
		{name: "provider", err: &agents.ProviderError{Op: "assistant exchange failed", Cause: assert.AnError}, expected: http.StatusBadGateway},
		{name: "parse", err: &agents.ParseError{Message: "no JSON object found in assistant reply"}, expected: http.StatusBadGateway},
		{name: "timeout", err: &agents.TimeoutError{Cause: context.DeadlineExceeded}, expected: http.StatusGatewayTimeout},
		{name: "validation", err: &agents.ValidationError{Message: "interview already completed"}, expected: http.StatusBadRequest},
		{name: "storage", err: &agents.StorageError{Op: "failed to save resume", Cause: assert.AnError}, expected: http.StatusInternalServerError},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", &agents.NotFoundError{Resource: "interview session"}), expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
