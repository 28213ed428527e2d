package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// MergeRateLimiter implements fixed-window rate limiting for merge requests,
// shared across instances through Redis. One window per IP per minute.
type MergeRateLimiter struct {
	rdb       *goredis.Client
	clock     clockwork.Clock
	perMinute int
}

// NewMergeRateLimiter creates a limiter allowing perMinute merge requests
// per client IP across all instances.
func NewMergeRateLimiter(rdb *goredis.Client, clock clockwork.Clock, perMinute int) *MergeRateLimiter {
	return &MergeRateLimiter{
		rdb:       rdb,
		clock:     clock,
		perMinute: perMinute,
	}
}

// Allow checks whether a merge request from the given IP may proceed.
// Returns true if allowed (slot consumed), false if rate limited.
func (m *MergeRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	window := m.clock.Now().Unix() / 60
	key := fmt.Sprintf("rate_limit:merge:%s:%d", ip, window)

	pipe := m.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// Expiry slightly past the window so stragglers still hit the same key.
	pipe.Expire(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return incr.Val() <= int64(m.perMinute), nil
}
