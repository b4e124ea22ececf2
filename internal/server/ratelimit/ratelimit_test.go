package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *Config) *Limiter {
	t.Helper()
	l := NewLimiter(cfg)
	t.Cleanup(l.Stop)
	return l
}

func TestBucket_RefillAndStatus(t *testing.T) {
	b := newBucket(60, time.Minute, 10) // one token per second
	now := time.Now()

	for i := 0; i < 10; i++ {
		require.True(t, b.limiter.AllowN(now, 1), "request %d", i+1)
	}
	assert.False(t, b.limiter.AllowN(now, 1))
	assert.InDelta(t, float64(time.Second), float64(b.retryAfter(now)), float64(time.Millisecond))

	later := now.Add(1100 * time.Millisecond)
	assert.True(t, b.limiter.AllowN(later, 1))
	assert.False(t, b.limiter.AllowN(later, 1))
}

func TestBucket_Status(t *testing.T) {
	b := newBucket(60, time.Minute, 10)
	now := time.Now()
	for i := 0; i < 5; i++ {
		b.limiter.AllowN(now, 1)
	}

	remaining, reset := b.status(now)
	assert.Equal(t, 5, remaining)
	assert.True(t, reset.Equal(now.Add(5*time.Second)), "reset at %v", reset)
	assert.Zero(t, b.retryAfter(now))
}

func TestBucket_DefaultBurst(t *testing.T) {
	assert.Equal(t, 7, newBucket(7, time.Minute, 0).burst)
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("127.0.0.1", http.MethodGet, "/sessions")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", http.MethodGet, "/resumes")
	assert.False(t, allowed, "unmatched paths share the default bucket")
	assert.Zero(t, info.Remaining)
	assert.Positive(t, info.RetryAfter)

	allowed, _ = l.Allow("10.0.0.2", http.MethodGet, "/sessions")
	assert.True(t, allowed, "buckets are per client")
}

func TestLimiter_RuleSharedAcrossIDs(t *testing.T) {
	l := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Rules:         []Rule{{Method: http.MethodPost, Path: "/sessions/", Limit: 2, Window: time.Hour}},
	})

	allowed, info := l.Allow("c", http.MethodPost, "/sessions/a/continue")
	assert.True(t, allowed)
	assert.Equal(t, 2, info.Limit)
	allowed, _ = l.Allow("c", http.MethodPost, "/sessions/b/start")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", http.MethodPost, "/sessions/c/continue")
	assert.False(t, allowed)

	allowed, info = l.Allow("c", http.MethodGet, "/sessions/a")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_BypassLists(t *testing.T) {
	l := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
		Exempt:        []string{"/health"},
	})

	for i := 0; i < 20; i++ {
		allowed, info := l.Allow("127.0.0.1", http.MethodGet, "/sessions")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)

		allowed, _ = l.Allow("10.0.0.9", http.MethodGet, "/health")
		require.True(t, allowed)
	}

	allowed, _ := l.Allow("192.168.1.1", http.MethodGet, "/health")
	assert.True(t, allowed, "exempt paths skip the blacklist")
	allowed, _ = l.Allow("192.168.1.1", http.MethodGet, "/sessions")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := newTestLimiter(t, &Config{Enabled: false})

	for i := 0; i < 50; i++ {
		allowed, info := l.Allow("127.0.0.1", http.MethodPost, "/strategies")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})

	var wg sync.WaitGroup
	var allowed atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("127.0.0.1", http.MethodGet, "/sessions"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 100, allowed.Load())
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	l := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("127.0.0.%d", i+1), http.MethodGet, "/sessions")
	}
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	for i := 0; i < 5; i++ {
		l.Allow(fmt.Sprintf("127.0.0.%d", i+1), http.MethodGet, "/sessions")
	}

	l.cleanupBuckets(cutoff)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 5)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := newTestLimiter(t, nil)

	allowed, info := l.Allow("127.0.0.1", http.MethodGet, "/sessions")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)

	_, info = l.Allow("127.0.0.1", http.MethodGet, "/health")
	assert.Zero(t, info.Limit)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestRuleFor_DefaultRules(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		method string
		path   string
		limit  int
		key    string
	}{
		{http.MethodPost, "/strategies", 20, "POST /strategies"},
		{http.MethodPost, "/resumes/parse", 20, "POST /resumes/parse"},
		{http.MethodPost, "/resumes", 100, "POST /resumes"},
		{http.MethodPost, "/sessions/abc/continue", 240, "POST /sessions/"},
		{http.MethodDelete, "/resumes/abc", 100, "DELETE /resumes/"},
		{http.MethodDelete, "/job-postings/abc", 100, "DELETE /job-postings/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rule, ok := ruleFor(rules, tt.method, tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.limit, rule.Limit)
			assert.Equal(t, tt.key, rule.key())
		})
	}

	_, ok := ruleFor(rules, http.MethodGet, "/sessions")
	assert.False(t, ok, "reads use the default limit")
}

func TestRuleFor_LongestPrefixWins(t *testing.T) {
	rules := []Rule{
		{Method: http.MethodPost, Path: "/a/", Limit: 1},
		{Method: http.MethodPost, Path: "/a/b/", Limit: 2},
		{Method: http.MethodPost, Path: "/a/b/c", Limit: 3},
	}

	rule, _ := ruleFor(rules, http.MethodPost, "/a/b/x")
	assert.Equal(t, 2, rule.Limit)
	rule, _ = ruleFor(rules, http.MethodPost, "/a/b/c")
	assert.Equal(t, 3, rule.Limit)
	rule, _ = ruleFor(rules, http.MethodPost, "/a/z")
	assert.Equal(t, 1, rule.Limit)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, k := range []string{"RATE_LIMIT_ENABLED", "RATE_LIMIT_DEFAULT_LIMIT", "RATE_LIMIT_DEFAULT_WINDOW", "RATE_LIMIT_CLEANUP_INTERVAL"} {
			t.Setenv(k, "")
		}
		t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1, ,10.0.0.2")
		t.Setenv("RATE_LIMIT_BLACKLIST", "")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, 1000, cfg.DefaultLimit)
		assert.Equal(t, time.Minute, cfg.DefaultWindow)
		assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
		assert.Empty(t, cfg.Blacklist)
		assert.Equal(t, []string{"/health"}, cfg.Exempt)
		assert.NotEmpty(t, cfg.Rules)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_ENABLED", "false")
		t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "nope")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.False(t, cfg.Enabled)
	})

	for name, env := range map[string][2]string{
		"bad bool":        {"RATE_LIMIT_ENABLED", "maybe"},
		"bad limit":       {"RATE_LIMIT_DEFAULT_LIMIT", "lots"},
		"zero limit":      {"RATE_LIMIT_DEFAULT_LIMIT", "0"},
		"bad window":      {"RATE_LIMIT_DEFAULT_WINDOW", "soon"},
		"bad cleanup":     {"RATE_LIMIT_CLEANUP_INTERVAL", "1x"},
		"negative window": {"RATE_LIMIT_DEFAULT_WINDOW", "-1m"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("RATE_LIMIT_ENABLED", "")
			t.Setenv(env[0], env[1])

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
