package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
)

const maxRetryDelay = 20 * time.Second

// backoff retries transient provider failures with doubling delays.
type backoff struct {
	attempts int
	delay    time.Duration
}

func newBackoff(attempts int, delay time.Duration) backoff {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = time.Second
	}
	return backoff{attempts: attempts, delay: delay}
}

func (b backoff) do(ctx context.Context, call func() error) error {
	delay := b.delay
	for attempt := 1; ; attempt++ {
		err := call()
		if err == nil || attempt >= b.attempts || !transient(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

// transient reports quota and server-side errors from the Google API.
func transient(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}
