package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared-counter strategy: a fixed-window INCR+EXPIRE counter
// keyed per (policy, client). Because the counter lives in redis, the
// budget is shared across every service instance pointed at the same
// server, which is what makes multi-instance throttling more than
// best-effort.
//
// Trade-off versus the in-process strategy: the window is fixed rather than
// sliding, and breach escalation (BlockFor) relies on the same key TTL, so
// block precision is bounded by the window length.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Allow implements RateLimiter.
func (r *Redis) Allow(ctx context.Context, key string, p Policy) (Decision, error) {
	k := fmt.Sprintf("guard:%s:%s", p.Name, key)

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis incr: %w", err)
	}

	// First hit in a window owns setting the expiry.
	if count == 1 {
		if err := r.client.Expire(ctx, k, p.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit: redis expire: %w", err)
		}
	}

	if count > int64(p.MaxRequests) {
		retry := p.Window
		if ttl, err := r.client.TTL(ctx, k).Result(); err == nil && ttl > 0 {
			retry = ttl
		}

		// Escalate the first breach by stretching the key TTL to the
		// block duration.
		if p.BlockFor > 0 && count == int64(p.MaxRequests)+1 {
			if err := r.client.Expire(ctx, k, p.BlockFor).Err(); err == nil {
				retry = p.BlockFor
			}
		}

		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: p.MaxRequests - int(count),
	}, nil
}
