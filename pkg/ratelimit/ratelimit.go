// Package ratelimit provides the request-rate guard used in front of the
// activation endpoints. Callers depend only on the RateLimiter contract;
// the concrete strategy (in-process sliding window or a shared redis
// counter) is chosen at wiring time.
package ratelimit

import (
	"context"
	"time"
)

// Policy describes one rate-limit instantiation. The same primitive backs
// both the coarse anti-abuse policy (low budget, long window, hard block on
// breach) and the fine per-endpoint throttle (tiny budget, one-second
// window, no block).
type Policy struct {
	// Name namespaces the counters, so the same client key can be tracked
	// independently per operation.
	Name string

	// Window is the trailing interval requests are counted over.
	Window time.Duration

	// MaxRequests is the number of requests allowed within Window.
	MaxRequests int

	// BlockFor, when positive, escalates a breached window into a hard
	// block: every request from the client is rejected until it elapses.
	BlockFor time.Duration
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed bool

	// Remaining is the request budget left in the current window.
	Remaining int

	// RetryAfter is how long the caller should wait before retrying.
	// Zero when Allowed.
	RetryAfter time.Duration

	// Anomalous marks traffic the heuristic classifier considers
	// machine-like (see classify). Annotation only, never a reason to
	// reject on its own.
	Anomalous bool
}

// RetryAfterSeconds returns RetryAfter as whole seconds, rounded up to at
// least 1 for any rejected request, matching the Retry-After header contract.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimiter is the guard capability. Implementations must be safe for
// concurrent use.
//
// The in-process strategy is per-instance: in a multi-instance deployment
// it provides best-effort throttling only. Deployments that need a shared
// budget should wire the redis strategy instead.
type RateLimiter interface {
	Allow(ctx context.Context, key string, p Policy) (Decision, error)
}
