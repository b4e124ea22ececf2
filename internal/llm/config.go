// Package llm provides single-shot LLM configuration and client abstractions
// plus helpers for pulling JSON out of model replies.
package llm

import (
	"os"
	"strconv"
	"time"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification, extraction, basic summarization
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: parsing, structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: answer evaluation, feedback writing
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// defaultTemperature keeps scoring output stable between calls.
const defaultTemperature float32 = 0.1

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	// MaxAttempts bounds calls per request when the provider reports quota
	// or server errors. RetryDelay is the first wait and doubles after that.
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: defaultTemperature,
		MaxAttempts: 3,
		RetryDelay:  time.Second,
	}
}

// ConfigFromEnv returns DefaultConfig with per-tier overrides from
// LLM_MODEL_LITE, LLM_MODEL_STANDARD, LLM_MODEL_ADVANCED, LLM_TEMPERATURE and
// LLM_MAX_ATTEMPTS. Unparseable values keep the default.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	overrides := map[ModelTier]string{
		TierLite:     "LLM_MODEL_LITE",
		TierStandard: "LLM_MODEL_STANDARD",
		TierAdvanced: "LLM_MODEL_ADVANCED",
	}
	for tier, key := range overrides {
		if v := os.Getenv(key); v != "" {
			cfg = cfg.WithModel(tier, v)
		}
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 && f <= 2 {
			cfg.Temperature = float32(f)
		}
	}
	if v := os.Getenv("LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
		MaxAttempts: c.MaxAttempts,
		RetryDelay:  c.RetryDelay,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
