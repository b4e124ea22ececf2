package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jonathan/izzy/internal/assistant"
	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/llm"
	"github.com/jonathan/izzy/internal/schemas"
)

// maxLogSummary bounds the input and output summaries stored in agent logs.
const maxLogSummary = 500

// converse opens a fresh thread and performs one exchange on it.
func (d Deps) converse(ctx context.Context, assistantID, content string) (string, string, error) {
	threadID, err := d.Provider.CreateThread(ctx)
	if err != nil {
		return "", "", &ProviderError{Op: "failed to create thread", Cause: err}
	}
	reply, err := d.exchange(ctx, threadID, assistantID, content)
	return threadID, reply, err
}

// exchange sends content on an existing thread and returns the reply text,
// mapping provider failures onto the agent error taxonomy.
func (d Deps) exchange(ctx context.Context, threadID, assistantID, content string) (string, error) {
	reply, err := assistant.Exchange(ctx, d.Provider, d.Poller, threadID, assistantID, content)
	if err == nil {
		return reply, nil
	}

	var timeout *assistant.TimeoutError
	if errors.As(err, &timeout) || errors.Is(err, context.DeadlineExceeded) {
		return "", &TimeoutError{Cause: err}
	}
	return "", &ProviderError{Op: "assistant exchange failed", Cause: err}
}

// decodeReply pulls the JSON object out of reply text, validates it against
// the reply schema and unmarshals it into v.
func decodeReply(reply string, kind schemas.Reply, v any) (string, error) {
	payload, found := llm.ExtractJSON(reply)
	if !found {
		return "", &ParseError{Message: "no JSON object found in assistant reply"}
	}
	if err := schemas.ValidateReply(kind, payload); err != nil {
		return "", &ParseError{Message: "assistant reply failed validation", Cause: err}
	}
	if v != nil {
		if err := json.Unmarshal([]byte(payload), v); err != nil {
			return "", &ParseError{Message: "failed to decode assistant reply", Cause: err}
		}
	}
	return payload, nil
}

// logAgent appends an audit row. Failures are logged and never fail the caller.
func (d Deps) logAgent(ctx context.Context, agentType string, sessionID *uuid.UUID, input, output string, started time.Time) {
	// The operator CLI can parse without a database.
	if d.Store == nil {
		return
	}
	entry := &db.AgentLog{
		AgentType:        agentType,
		SessionID:        sessionID,
		InputSummary:     summarize(input),
		OutputSummary:    summarize(output),
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}
	if err := d.Store.LogAgent(ctx, entry); err != nil {
		d.Logger.Warn("failed to write agent log",
			slog.String("agent", agentType),
			slog.String("error", err.Error()))
	}
}

func summarize(s string) string {
	if utf8.RuneCountInString(s) <= maxLogSummary {
		return s
	}
	r := []rune(s)
	return string(r[:maxLogSummary])
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return &AuthError{}
	}
	return nil
}

func requireAssistant(setting, id string) error {
	if id == "" {
		return &ConfigError{Setting: setting, Message: "assistant id is not configured"}
	}
	return nil
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Cause: err}
}

func describe(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
