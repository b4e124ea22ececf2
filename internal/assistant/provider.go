// Package assistant talks to a hosted conversational assistant provider:
// threads hold the conversation, runs execute an assistant against a thread,
// and callers poll a run until it reaches a terminal status.
package assistant

import "context"

// RunStatus is the provider-reported state of a run.
type RunStatus string

// Run statuses reported by the provider.
const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunIncomplete     RunStatus = "incomplete"
	RunExpired        RunStatus = "expired"
)

// IsTerminal reports whether the run will not change status again.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunQueued, RunInProgress, RunRequiresAction, RunCancelling:
		return false
	default:
		return true
	}
}

// Role is the author of a thread message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Run is one execution of an assistant against a thread.
type Run struct {
	ID           string
	ThreadID     string
	Status       RunStatus
	ErrorCode    string
	ErrorMessage string
}

// Message is one entry of a thread, text content only.
type Message struct {
	ID    string
	Role  Role
	RunID string
	Text  string
}

// Provider is the conversation API consumed by the agents.
type Provider interface {
	// CreateThread opens a new, empty conversation and returns its id.
	CreateThread(ctx context.Context) (string, error)
	// AddMessage appends a message to a thread.
	AddMessage(ctx context.Context, threadID string, role Role, content string) error
	// CreateRun starts the given assistant on a thread.
	CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	// GetRun returns the current state of a run.
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	// ListMessages returns thread messages, newest first.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
