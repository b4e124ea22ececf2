// Package ratelimit provides per-client, per-endpoint rate limiting backed by
// golang.org/x/time/rate token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucketIdleTTL is how long an unused bucket is kept before cleanup.
const bucketIdleTTL = time.Hour

// bucket is one client+endpoint token bucket.
type bucket struct {
	limiter    *rate.Limiter
	burst      int
	perSecond  float64
	lastAccess time.Time
}

// newBucket creates a full bucket holding burst tokens that refills at limit per window.
func newBucket(limit int, window time.Duration, burst int) *bucket {
	if burst <= 0 {
		burst = limit
	}
	perSecond := float64(limit) / window.Seconds()
	return &bucket{
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
		burst:     burst,
		perSecond: perSecond,
	}
}

// status reports whole tokens left and when the bucket will be full again.
func (b *bucket) status(now time.Time) (remaining int, resetTime time.Time) {
	tokens := b.limiter.TokensAt(now)
	remaining = max(0, int(tokens))
	missing := float64(b.burst) - tokens
	if missing <= 0 || b.perSecond <= 0 {
		return remaining, now
	}
	return remaining, now.Add(time.Duration(missing / b.perSecond * float64(time.Second)))
}

// retryAfter is the wait until one token is available.
func (b *bucket) retryAfter(now time.Time) time.Duration {
	tokens := b.limiter.TokensAt(now)
	if tokens >= 1 || b.perSecond <= 0 {
		return 0
	}
	return time.Duration((1 - tokens) / b.perSecond * float64(time.Second))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages rate limiting for multiple clients.
type Limiter struct {
	mu            sync.Mutex
	buckets       map[string]*bucket
	config        *Config
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// Config holds rate limiting configuration. Requests that match no Rule share
// one default bucket per client.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Exempt          []string // paths that are never limited
	Rules           []Rule
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Exempt:          []string{"/health"},
		}
	}

	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow records one request from clientID and reports whether it may proceed.
func (l *Limiter) Allow(clientID, method, path string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] || l.exempt(path) {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	rule, ok := ruleFor(l.config.Rules, method, path)
	key := "default"
	if ok {
		key = rule.key()
	} else {
		rule = Rule{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := time.Now()
	b := l.getBucket(clientID+"|"+key, rule, now)

	allowed := b.limiter.AllowN(now, 1)
	remaining, resetTime := b.status(now)

	info := Info{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}
	if !allowed {
		info.RetryAfter = b.retryAfter(now)
	}
	return allowed, info
}

func (l *Limiter) exempt(path string) bool {
	for _, p := range l.config.Exempt {
		if p == path {
			return true
		}
	}
	return false
}

// getBucket gets or creates the bucket for key and marks it used.
func (l *Limiter) getBucket(key string, rule Rule, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		b = newBucket(rule.Limit, rule.Window, rule.Burst)
		l.buckets[key] = b
	}
	b.lastAccess = now
	return b
}

// cleanup removes old unused buckets to prevent memory leaks.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets(time.Now().Add(-bucketIdleTTL))
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets last used before cutoff.
func (l *Limiter) cleanupBuckets(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
