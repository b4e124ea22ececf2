package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_DEFAULT_LIMIT,
// RATE_LIMIT_DEFAULT_WINDOW, RATE_LIMIT_CLEANUP_INTERVAL,
// RATE_LIMIT_WHITELIST and RATE_LIMIT_BLACKLIST. Malformed values are errors.
func LoadConfig() (*Config, error) {
	enabled, err := envBool("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return &Config{Enabled: false}, nil
	}

	limit, err := envInt("RATE_LIMIT_DEFAULT_LIMIT", 1000)
	if err != nil {
		return nil, err
	}
	window, err := envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	cleanup, err := envDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_DEFAULT_LIMIT and RATE_LIMIT_DEFAULT_WINDOW must be positive")
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    limit,
		DefaultWindow:   window,
		CleanupInterval: cleanup,
		Whitelist:       ipSet(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       ipSet(os.Getenv("RATE_LIMIT_BLACKLIST")),
		Exempt:          []string{"/health"},
		Rules:           DefaultRules(),
	}, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// ipSet parses a comma-separated address list.
func ipSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
