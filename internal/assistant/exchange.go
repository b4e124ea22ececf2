package assistant

import (
	"context"
	"fmt"
)

// Exchange appends a user message to a thread, runs the assistant, waits for
// the run to complete and returns the assistant's reply text for that run.
func Exchange(ctx context.Context, provider Provider, poller Poller, threadID, assistantID, content string) (string, error) {
	if err := provider.AddMessage(ctx, threadID, RoleUser, content); err != nil {
		return "", fmt.Errorf("failed to add message: %w", err)
	}

	run, err := provider.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	if !run.Status.IsTerminal() {
		run, err = poller.Wait(ctx, provider, threadID, run.ID)
		if err != nil {
			return "", err
		}
	}

	if run.Status != RunCompleted {
		return "", &RunError{RunID: run.ID, Status: run.Status, Code: run.ErrorCode, Message: run.ErrorMessage}
	}

	messages, err := provider.ListMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}

	return latestReply(messages, threadID, run.ID)
}

// latestReply picks the newest assistant message produced by runID. Providers
// that do not tag messages with a run id fall back to the newest assistant message.
func latestReply(messages []Message, threadID, runID string) (string, error) {
	var fallback *Message
	for i := range messages {
		m := &messages[i]
		if m.Role != RoleAssistant || m.Text == "" {
			continue
		}
		if m.RunID == runID {
			return m.Text, nil
		}
		if m.RunID == "" && fallback == nil {
			fallback = m
		}
	}
	if fallback != nil {
		return fallback.Text, nil
	}
	return "", &NoReplyError{ThreadID: threadID, RunID: runID}
}
