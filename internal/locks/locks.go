// Package locks serializes work on the same key, such as turns of one
// interview session, across requests and optionally across processes.
package locks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when the key stays held for longer than the wait budget.
var ErrBusy = errors.New("lock is held by another request")

// Locker acquires exclusive ownership of a key. The returned release func
// is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Options tunes lock behaviour.
type Options struct {
	// Wait is how long Acquire blocks before returning ErrBusy.
	Wait time.Duration
	// TTL bounds how long a crashed holder can keep a Redis lock.
	TTL time.Duration
	// RetryInterval is the Redis re-check period while waiting.
	RetryInterval time.Duration
}

// DefaultOptions suits interview turns, which can take a full assistant run.
func DefaultOptions() Options {
	return Options{
		Wait:          5 * time.Second,
		TTL:           3 * time.Minute,
		RetryInterval: 100 * time.Millisecond,
	}
}

// turnMargin covers the provider calls around a run poll.
const turnMargin = time.Minute

// OptionsFor returns DefaultOptions with a TTL long enough to outlive work
// that may take up to maxWork, so a slow turn never loses its lock.
func OptionsFor(maxWork time.Duration) Options {
	o := DefaultOptions()
	o.TTL = max(o.TTL, maxWork+turnMargin)
	return o
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.Wait <= 0 {
		o.Wait = d.Wait
	}
	if o.TTL <= 0 {
		o.TTL = d.TTL
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = d.RetryInterval
	}
	return o
}

// New returns a Redis-backed locker when redisURL is set and reachable,
// otherwise an in-process locker.
func New(ctx context.Context, redisURL string, opts Options) Locker {
	opts = opts.normalize()
	if redisURL == "" {
		return NewMemory(opts)
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("locks: invalid redis URL, using in-process locks", slog.Any("error", err))
		return NewMemory(opts)
	}

	rdb := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("locks: redis unreachable, using in-process locks", slog.Any("error", err))
		_ = rdb.Close()
		return NewMemory(opts)
	}

	slog.Info("locks: redis connected", slog.String("addr", redisOpts.Addr))
	return NewRedis(rdb, opts)
}

// SessionKey is the lock key for turns of one interview session.
func SessionKey(sessionID string) string {
	return "izzy:session-turn:" + sessionID
}
