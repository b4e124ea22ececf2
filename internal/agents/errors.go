package agents

import "fmt"

// AuthError means the caller is not authenticated.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return e.Message
}

// ConfigError means a required setting, such as an assistant id, is missing.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NotFoundError means the record does not exist or is not owned by the caller.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// ProviderError means the assistant or model provider failed.
type ProviderError struct {
	Op    string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ParseError means the assistant reply did not contain a usable JSON payload.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// StorageError means a database read or write failed.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// TimeoutError means the assistant run did not finish in time.
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("assistant timed out: %v", e.Cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ValidationError means a precondition on the request or record failed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
