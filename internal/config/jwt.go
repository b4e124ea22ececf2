package config

import (
	"fmt"
	"os"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	Issuer          string
	ExpirationHours int
	// AnonymousExpirationHours bounds guest sessions, which cannot log back in.
	AnonymousExpirationHours int
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required), JWT_ISSUER (default: izzy),
// JWT_EXPIRATION_HOURS (default: 24) and JWT_ANONYMOUS_EXPIRATION_HOURS
// (default: 72).
func NewJWTConfig() (*JWTConfig, error) {
	expirationHours, err := envInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	anonymousHours, err := envInt("JWT_ANONYMOUS_EXPIRATION_HOURS", 72)
	if err != nil {
		return nil, err
	}

	config := &JWTConfig{
		Secret:                   os.Getenv("JWT_SECRET"),
		Issuer:                   envString("JWT_ISSUER", "izzy"),
		ExpirationHours:          expirationHours,
		AnonymousExpirationHours: anonymousHours,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got: %d", len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.AnonymousExpirationHours < 1 {
		return fmt.Errorf("JWT_ANONYMOUS_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.AnonymousExpirationHours)
	}
	return nil
}
