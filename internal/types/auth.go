// Package types holds the data shared by the agents, storage and API layers.
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateUserRequest registers a password account. Passwords are capped at the
// bcrypt input limit.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Normalize trims surrounding whitespace so blank names fail validation.
func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

// LoginRequest signs in with email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Normalize trims the email.
func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// UpdatePasswordRequest changes the caller's password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// User is the public profile of an account. Anonymous accounts have no email.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	PasswordSet bool      `json:"password_set"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoginResponse is returned by register, login and anonymous sign-in.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
