package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AssistantConfig configures the hosted assistant provider and the three
// conversational agents. Missing assistant ids are allowed here; the agent
// that needs one reports it when called.
type AssistantConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration

	ResumeParserID string
	StrategistID   string
	InterviewerID  string

	PollInitial time.Duration
	PollMax     time.Duration
	PollTimeout time.Duration
}

// NewAssistantConfig reads OPENAI_API_KEY (required), OPENAI_BASE_URL,
// OPENAI_REQUEST_TIMEOUT, ASSISTANT_RESUME_PARSER_ID, ASSISTANT_STRATEGIST_ID,
// ASSISTANT_INTERVIEWER_ID, ASSISTANT_POLL_INITIAL, ASSISTANT_POLL_MAX and
// ASSISTANT_POLL_TIMEOUT.
func NewAssistantConfig() (*AssistantConfig, error) {
	requestTimeout, err := envDuration("OPENAI_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	pollInitial, err := envDuration("ASSISTANT_POLL_INITIAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	pollMax, err := envDuration("ASSISTANT_POLL_MAX", 5*time.Second)
	if err != nil {
		return nil, err
	}
	pollTimeout, err := envDuration("ASSISTANT_POLL_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &AssistantConfig{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		BaseURL:        envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		RequestTimeout: requestTimeout,
		ResumeParserID: envString("ASSISTANT_RESUME_PARSER_ID", ""),
		StrategistID:   envString("ASSISTANT_STRATEGIST_ID", ""),
		InterviewerID:  envString("ASSISTANT_INTERVIEWER_ID", ""),
		PollInitial:    pollInitial,
		PollMax:        pollMax,
		PollTimeout:    pollTimeout,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// normalize validates the configuration.
func (c *AssistantConfig) normalize() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required but not set")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("OPENAI_BASE_URL must be an http(s) URL, got: %q", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("OPENAI_REQUEST_TIMEOUT must be positive, got: %s", c.RequestTimeout)
	}
	if c.PollInitial <= 0 {
		return fmt.Errorf("ASSISTANT_POLL_INITIAL must be positive, got: %s", c.PollInitial)
	}
	if c.PollMax < c.PollInitial {
		return fmt.Errorf("ASSISTANT_POLL_MAX (%s) must not be below ASSISTANT_POLL_INITIAL (%s)", c.PollMax, c.PollInitial)
	}
	if c.PollTimeout < c.PollInitial {
		return fmt.Errorf("ASSISTANT_POLL_TIMEOUT (%s) must not be below ASSISTANT_POLL_INITIAL (%s)", c.PollTimeout, c.PollInitial)
	}
	return nil
}
