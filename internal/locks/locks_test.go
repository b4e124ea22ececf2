package locks

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SerializesSameKey(t *testing.T) {
	m := NewMemory(Options{Wait: time.Second})

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "session-1")
			require.NoError(t, err)
			defer release()

			n := active.Add(1)
			for {
				cur := maxActive.Load()
				if n <= cur || maxActive.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestMemory_DifferentKeysIndependent(t *testing.T) {
	m := NewMemory(Options{Wait: 10 * time.Millisecond})

	r1, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer r1()

	r2, err := m.Acquire(context.Background(), "b")
	require.NoError(t, err)
	r2()
}

func TestMemory_BusyAfterWait(t *testing.T) {
	m := NewMemory(Options{Wait: 10 * time.Millisecond})

	release, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer release()

	_, err = m.Acquire(context.Background(), "a")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestMemory_ContextCancelled(t *testing.T) {
	m := NewMemory(Options{Wait: time.Second})

	release, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_ReleaseIsIdempotent(t *testing.T) {
	m := NewMemory(Options{Wait: 10 * time.Millisecond})

	release, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	release()
	release()

	again, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	again()
}

func TestNew_FallsBackToMemory(t *testing.T) {
	assert.IsType(t, &Memory{}, New(context.Background(), "", Options{}))
	assert.IsType(t, &Memory{}, New(context.Background(), "::not a url::", Options{}))
}

func TestOptionsFor_TTLOutlivesWork(t *testing.T) {
	tests := []struct {
		name    string
		maxWork time.Duration
		wantTTL time.Duration
	}{
		{"default poll timeout", 2 * time.Minute, 3 * time.Minute},
		{"short work keeps default", 10 * time.Second, 3 * time.Minute},
		{"long poll timeout", 10 * time.Minute, 11 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := OptionsFor(tt.maxWork)
			assert.Equal(t, tt.wantTTL, opts.TTL)
			assert.Greater(t, opts.TTL, tt.maxWork)
			assert.Equal(t, DefaultOptions().Wait, opts.Wait)
		})
	}
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "izzy:session-turn:abc", SessionKey("abc"))
}

func TestRedis_AcquireRelease(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	l := NewRedis(rdb, Options{Wait: 50 * time.Millisecond, TTL: time.Second, RetryInterval: 10 * time.Millisecond})
	key := "izzy:test:" + t.Name()

	release, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, ErrBusy)

	release()
	release2, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)
	release2()
}
