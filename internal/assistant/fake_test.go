package assistant

import (
	"context"
	"sync"
)

// scriptedProvider returns statuses from a queue on each GetRun call.
type scriptedProvider struct {
	mu       sync.Mutex
	statuses []RunStatus
	initial  RunStatus
	messages []Message
	added    []string
	getCalls int

	addErr    error
	createErr error
	getErr    error
}

func (p *scriptedProvider) CreateThread(context.Context) (string, error) { return "thread_1", nil }

func (p *scriptedProvider) AddMessage(_ context.Context, _ string, _ Role, content string) error {
	if p.addErr != nil {
		return p.addErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.added = append(p.added, content)
	return nil
}

func (p *scriptedProvider) CreateRun(_ context.Context, threadID, _ string) (*Run, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	status := p.initial
	if status == "" {
		status = RunQueued
	}
	return &Run{ID: "run_1", ThreadID: threadID, Status: status}, nil
}

func (p *scriptedProvider) GetRun(_ context.Context, threadID, runID string) (*Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	status := RunInProgress
	if len(p.statuses) > 0 {
		status = p.statuses[0]
		p.statuses = p.statuses[1:]
	}
	run := &Run{ID: runID, ThreadID: threadID, Status: status}
	if status == RunFailed {
		run.ErrorCode = "server_error"
		run.ErrorMessage = "boom"
	}
	return run, nil
}

func (p *scriptedProvider) ListMessages(context.Context, string) ([]Message, error) {
	return p.messages, nil
}
