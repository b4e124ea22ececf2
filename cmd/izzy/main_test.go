package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		dropped slog.Level
	}{
		{level: "debug", enabled: slog.LevelDebug, dropped: slog.LevelDebug - 4},
		{level: "INFO", enabled: slog.LevelInfo, dropped: slog.LevelDebug},
		{level: "warn", enabled: slog.LevelWarn, dropped: slog.LevelInfo},
		{level: "error", enabled: slog.LevelError, dropped: slog.LevelWarn},
		{level: "verbose", enabled: slog.LevelInfo, dropped: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(&bytes.Buffer{}, tt.level)
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			assert.False(t, logger.Enabled(context.Background(), tt.dropped))
		})
	}
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info").Info("hello", "key", "value")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}

// execute runs the root command in-process with the given arguments.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestServeCommand_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestMigrateCommand_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	for _, sub := range []string{"up", "down", "version"} {
		t.Run(sub, func(t *testing.T) {
			_, err := execute(t, "migrate", sub)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "DATABASE_URL environment variable is required")
		})
	}
}
