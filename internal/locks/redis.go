package locks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis.
type Redis struct {
	rdb  *redis.Client
	opts Options
}

// NewRedis creates a Redis-backed locker.
func NewRedis(rdb *redis.Client, opts Options) *Redis {
	return &Redis{rdb: rdb, opts: opts.normalize()}
}

// Acquire sets key with NX and a TTL, retrying until the wait budget runs out.
func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(r.opts.Wait)

	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return r.releaser(key, token), nil
		}

		if time.Now().After(deadline) {
			return nil, ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.opts.RetryInterval):
		}
	}
}

func (r *Redis) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.rdb, []string{key}, token).Err(); err != nil {
				slog.Warn("locks: release failed", slog.String("key", key), slog.Any("error", err))
			}
		})
	}
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
