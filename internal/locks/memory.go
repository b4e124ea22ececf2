package locks

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Locker.
type Memory struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

// NewMemory creates an in-process locker.
func NewMemory(opts Options) *Memory {
	opts = opts.normalize()
	return &Memory{held: make(map[string]chan struct{}), wait: opts.Wait}
}

// Acquire blocks until key is free, ctx is done or the wait budget runs out.
func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	for {
		m.mu.Lock()
		done, busy := m.held[key]
		if !busy {
			done = make(chan struct{})
			m.held[key] = done
			m.mu.Unlock()
			return m.releaser(key, done), nil
		}
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, ErrBusy
		}
	}
}

func (m *Memory) releaser(key string, done chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
			close(done)
		})
	}
}
