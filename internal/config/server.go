package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ServerConfig holds the HTTP server and backing service settings.
type ServerConfig struct {
	Port            int
	DatabaseURL     string
	RedisURL        string
	GeminiAPIKey    string
	ShutdownTimeout time.Duration
	// StreamChunkDelay paces the word groups of streamed interviewer replies.
	StreamChunkDelay time.Duration
	MaxUploadBytes   int64
	LogLevel         string
}

// NewServerConfig reads PORT (default: 8080), DATABASE_URL (required),
// REDIS_URL, GEMINI_API_KEY, SHUTDOWN_TIMEOUT, STREAM_CHUNK_DELAY,
// MAX_UPLOAD_MB and LOG_LEVEL.
func NewServerConfig() (*ServerConfig, error) {
	port, err := envInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	shutdown, err := envDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	chunkDelay, err := envDuration("STREAM_CHUNK_DELAY", 40*time.Millisecond)
	if err != nil {
		return nil, err
	}
	uploadMB, err := envInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}

	config := &ServerConfig{
		Port:             port,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		ShutdownTimeout:  shutdown,
		StreamChunkDelay: chunkDelay,
		MaxUploadBytes:   int64(uploadMB) << 20,
		LogLevel:         envString("LOG_LEVEL", "info"),
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// normalize validates the configuration.
func (c *ServerConfig) normalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got: %s", c.ShutdownTimeout)
	}
	if c.StreamChunkDelay < 0 {
		return fmt.Errorf("STREAM_CHUNK_DELAY must not be negative, got: %s", c.StreamChunkDelay)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got: %q", c.LogLevel)
	}
	return nil
}
