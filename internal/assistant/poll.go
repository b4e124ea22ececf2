package assistant

import (
	"context"
	"fmt"
	"time"
)

// Poller waits for a run to reach a terminal status using exponential backoff
// bounded by an overall deadline.
type Poller struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Timeout    time.Duration
}

// DefaultPoller returns the backoff used in production.
func DefaultPoller() Poller {
	return Poller{
		Initial:    500 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2,
		Timeout:    2 * time.Minute,
	}
}

// next returns the delay that follows d.
func (p Poller) next(d time.Duration) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	n := time.Duration(float64(d) * mult)
	if p.Max > 0 && n > p.Max {
		return p.Max
	}
	return n
}

// Wait polls the run until it leaves the pending statuses. It returns
// *TimeoutError when the deadline passes and ctx.Err() when ctx is done first.
func (p Poller) Wait(ctx context.Context, provider Provider, threadID, runID string) (*Run, error) {
	start := time.Now()
	deadline := context.Background()
	cancel := context.CancelFunc(func() {})
	if p.Timeout > 0 {
		deadline, cancel = context.WithTimeout(deadline, p.Timeout)
	}
	defer cancel()

	delay := p.Initial
	if delay <= 0 {
		delay = time.Second
	}
	lastStatus := RunQueued

	for {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-deadline.Done():
			timer.Stop()
			return nil, &TimeoutError{RunID: runID, LastStatus: lastStatus, Waited: time.Since(start)}
		case <-timer.C:
		}

		run, err := provider.GetRun(ctx, threadID, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
		}
		lastStatus = run.Status
		if run.Status.IsTerminal() {
			return run, nil
		}
		delay = p.next(delay)
	}
}
