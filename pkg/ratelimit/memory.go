package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// entry tracks the recent request timestamps for one (policy, client) pair,
// plus any active hard block.
type entry struct {
	hits         []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

// Memory is the in-process sliding-window strategy. For each key it keeps
// the timestamps of requests inside the trailing window; crossing the
// budget once escalates to a hard block when the policy asks for one.
//
// State is ephemeral and process-local. It does not survive restarts and is
// not shared across instances.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry

	// now is swappable for tests.
	now func() time.Time

	lastCleanup time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow implements RateLimiter.
func (m *Memory) Allow(_ context.Context, key string, p Policy) (Decision, error) {
	// A non-positive budget admits nothing; reject before touching state so
	// the window math below can assume at least one admitted hit.
	if p.MaxRequests <= 0 {
		return Decision{Allowed: false, RetryAfter: p.Window}, nil
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeCleanup(now)

	k := p.Name + "|" + key
	e, ok := m.entries[k]
	if !ok {
		e = &entry{}
		m.entries[k] = e
	}
	e.lastSeen = now

	// An active block rejects everything, independent of the window.
	if e.blockedUntil.After(now) {
		return Decision{
			Allowed:    false,
			RetryAfter: e.blockedUntil.Sub(now),
			Anomalous:  classify(e.hits, p),
		}, nil
	}

	// Drop timestamps that fell out of the window.
	cutoff := now.Add(-p.Window)
	kept := e.hits[:0]
	for _, t := range e.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.hits = kept

	anomalous := classify(e.hits, p)

	if len(e.hits) >= p.MaxRequests {
		retry := e.hits[0].Add(p.Window).Sub(now)
		if p.BlockFor > 0 {
			e.blockedUntil = now.Add(p.BlockFor)
			retry = p.BlockFor
		}
		return Decision{
			Allowed:    false,
			RetryAfter: retry,
			Anomalous:  anomalous,
		}, nil
	}

	e.hits = append(e.hits, now)
	return Decision{
		Allowed:   true,
		Remaining: p.MaxRequests - len(e.hits),
		Anomalous: anomalous,
	}, nil
}

// cleanupEvery bounds how often the passive sweep of stale keys runs.
const cleanupEvery = 5 * time.Minute

// staleAfter is how long an idle, unblocked key is kept before eviction.
const staleAfter = 30 * time.Minute

// maybeCleanup evicts keys that have been idle past staleAfter and are not
// under an active block. Called with the mutex held.
func (m *Memory) maybeCleanup(now time.Time) {
	if now.Sub(m.lastCleanup) < cleanupEvery {
		return
	}
	m.lastCleanup = now

	for k, e := range m.entries {
		if e.blockedUntil.After(now) {
			continue
		}
		if now.Sub(e.lastSeen) > staleAfter {
			delete(m.entries, k)
		}
	}
}

// classify flags traffic that looks machine-generated: either the
// inter-arrival gaps inside the window are unnaturally regular, or more
// than half the budget landed inside a tenth of the window. The flag is
// purely observational.
func classify(hits []time.Time, p Policy) bool {
	if len(hits) >= 5 && regularGaps(hits) {
		return true
	}

	if p.MaxRequests >= 4 && p.Window > 0 {
		sub := p.Window / 10
		burstLimit := p.MaxRequests / 2
		n := 0
		for i := len(hits) - 1; i >= 0; i-- {
			if hits[len(hits)-1].Sub(hits[i]) <= sub {
				n++
			}
		}
		if n > burstLimit {
			return true
		}
	}

	return false
}

// regularGaps reports whether the coefficient of variation of the
// inter-arrival gaps is below 0.15, i.e. the request intervals are
// near-constant in a way human traffic never is.
func regularGaps(hits []time.Time) bool {
	gaps := make([]float64, 0, len(hits)-1)
	for i := 1; i < len(hits); i++ {
		gaps = append(gaps, hits[i].Sub(hits[i-1]).Seconds())
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean <= 0 {
		return false
	}

	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(len(gaps))

	return math.Sqrt(variance)/mean < 0.15
}
