package assistant

import (
	"fmt"
	"time"
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant API %s failed with HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// RunError reports a run that finished in a non-completed terminal status.
type RunError struct {
	RunID   string
	Status  RunStatus
	Code    string
	Message string
}

func (e *RunError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("run %s ended with status %s: %s", e.RunID, e.Status, e.Message)
	}
	return fmt.Sprintf("run %s ended with status %s", e.RunID, e.Status)
}

// TimeoutError reports a run still pending when the poll deadline passed.
type TimeoutError struct {
	RunID      string
	LastStatus RunStatus
	Waited     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run %s still %s after %s", e.RunID, e.LastStatus, e.Waited.Round(time.Millisecond))
}

// NoReplyError reports a completed run that produced no assistant text.
type NoReplyError struct {
	ThreadID string
	RunID    string
}

func (e *NoReplyError) Error() string {
	return fmt.Sprintf("no assistant reply in thread %s for run %s", e.ThreadID, e.RunID)
}
