package config

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxBytes is the input length bcrypt accepts.
const bcryptMaxBytes = 72

// PasswordConfig holds configuration for password hashing and verification.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewPasswordConfig creates a new password configuration from environment variables.
// It reads BCRYPT_COST (default: 12) and optionally PASSWORD_PEPPER.
func NewPasswordConfig() (*PasswordConfig, error) {
	cost, err := envInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}

	config := &PasswordConfig{
		BcryptCost: cost,
		Pepper:     os.Getenv("PASSWORD_PEPPER"),
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	if len(c.Pepper) > 32 {
		return fmt.Errorf("PASSWORD_PEPPER must be at most 32 bytes, got: %d", len(c.Pepper))
	}
	return nil
}

func (c *PasswordConfig) peppered(pw string) ([]byte, error) {
	password := []byte(pw + c.Pepper)
	if len(password) > bcryptMaxBytes {
		return nil, fmt.Errorf("password too long: %d bytes (max %d including pepper)", len(password), bcryptMaxBytes)
	}
	return password, nil
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	password, err := c.peppered(pw)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword(password, c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	password, err := c.peppered(pw)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), password) == nil
}

// NeedsRehash reports whether a stored hash was made with a different cost
// than the configured one.
func (c *PasswordConfig) NeedsRehash(storedHash string) bool {
	cost, err := bcrypt.Cost([]byte(storedHash))
	return err == nil && cost != c.BcryptCost
}
