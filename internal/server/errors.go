// Package server provides the HTTP REST API for the interview agents.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/izzy/internal/agents"
)

// ErrEmailAlreadyExists is returned when registering a taken email.
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials covers both an unknown email and a wrong password.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch is returned when a password change gives the wrong current password.
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus maps account and agent errors, wrapped or not, to a status code.
// Anything unrecognized, nil included, is a 500.
func HTTPStatus(err error) int {
	var (
		emailTaken    *ErrEmailAlreadyExists
		badLogin      *ErrInvalidCredentials
		badPassword   *ErrPasswordMismatch
		noUser        *ErrUserNotFound
		invalid       *ErrValidation
		authErr       *agents.AuthError
		notFoundErr   *agents.NotFoundError
		configErr     *agents.ConfigError
		providerErr   *agents.ProviderError
		timeoutErr    *agents.TimeoutError
		parseErr      *agents.ParseError
		validationErr *agents.ValidationError
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &emailTaken):
		return http.StatusConflict
	case errors.As(err, &badLogin), errors.As(err, &badPassword), errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &noUser), errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &providerErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
