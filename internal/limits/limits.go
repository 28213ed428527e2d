// Package limits protects the merge pipeline from overload: a global cap on
// concurrent merges plus per-IP rate limiting. The rate limiter is pluggable
// so a Redis-backed implementation can replace the in-memory one when the
// service runs with multiple replicas.
package limits

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether a request from the given key (client IP) may
// proceed. Implementations: LocalRateLimiter, redis.MergeRateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ConcurrencyLimiter caps merges in flight per instance.
// Uses atomic operations for lock-free counting.
type ConcurrencyLimiter struct {
	current atomic.Int64
	max     int64
}

// NewConcurrencyLimiter creates a limiter with the specified maximum.
func NewConcurrencyLimiter(max int64) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{max: max}
}

// Acquire attempts to acquire a merge slot.
// Returns true if successful, false if at capacity.
func (l *ConcurrencyLimiter) Acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release releases a merge slot.
func (l *ConcurrencyLimiter) Release() {
	l.current.Add(-1)
}

// Current returns the number of merges in flight.
func (l *ConcurrencyLimiter) Current() int64 {
	return l.current.Load()
}

// Max returns the maximum allowed concurrent merges.
func (l *ConcurrencyLimiter) Max() int64 {
	return l.max
}

// LocalRateLimiter limits merge requests per IP using token buckets
// (golang.org/x/time/rate). Suitable for single-instance deployments.
type LocalRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	cleanupInterval = 5 * time.Minute
	entryMaxIdle    = 10 * time.Minute
)

// NewLocalRateLimiter creates a limiter allowing perMinute sustained requests
// with the given burst per IP.
func NewLocalRateLimiter(perMinute int, burst int) *LocalRateLimiter {
	return &LocalRateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		cleanupAt: time.Now().Add(cleanupInterval),
	}
}

// Allow checks whether a request from the given IP should proceed.
func (l *LocalRateLimiter) Allow(_ context.Context, ip string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(cleanupInterval)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(l.rate, l.burst),
			lastSeen: time.Now(),
		}
		l.limiters[ip] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow(), nil
}

// cleanup removes limiters for IPs idle past entryMaxIdle.
// Must be called with mu held.
func (l *LocalRateLimiter) cleanup() {
	cutoff := time.Now().Add(-entryMaxIdle)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// ActiveLimiters returns the number of tracked IPs.
func (l *LocalRateLimiter) ActiveLimiters() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
