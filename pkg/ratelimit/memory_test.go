package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock lets the tests march time forward deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0).UTC()}
}

func newTestMemory(c *fakeClock) *Memory {
	m := NewMemory()
	m.now = c.now
	return m
}

func TestMemoryWindowCounting(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := newTestMemory(clock)

	p := Policy{Name: "fine", Window: time.Second, MaxRequests: 2}

	d, err := m.Allow(ctx, "client-a", p)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)

	clock.advance(100 * time.Millisecond)
	d, err = m.Allow(ctx, "client-a", p)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)

	// Third request inside the window is rejected with a positive retry hint.
	clock.advance(100 * time.Millisecond)
	d, err = m.Allow(ctx, "client-a", p)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Positive(t, d.RetryAfter)
	require.GreaterOrEqual(t, d.RetryAfterSeconds(), 1)

	// Once the window elapses the budget is back.
	clock.advance(time.Second)
	d, err = m.Allow(ctx, "client-a", p)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestMemoryNonPositiveBudget(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := newTestMemory(clock)

	// A zero budget (e.g. a misconfigured guard) rejects cleanly instead of
	// admitting or panicking; the retry hint is the whole window.
	p := Policy{Name: "fine", Window: time.Second, MaxRequests: 0}

	d, err := m.Allow(ctx, "client-a", p)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, time.Second, d.RetryAfter)

	p.MaxRequests = -1
	d, err = m.Allow(ctx, "client-a", p)
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := newTestMemory(clock)

	p := Policy{Name: "fine", Window: time.Second, MaxRequests: 1}

	d, _ := m.Allow(ctx, "client-a", p)
	require.True(t, d.Allowed)

	d, _ = m.Allow(ctx, "client-a", p)
	require.False(t, d.Allowed)

	// A different client, and the same client under a different policy name,
	// are tracked separately.
	d, _ = m.Allow(ctx, "client-b", p)
	require.True(t, d.Allowed)

	other := Policy{Name: "coarse", Window: time.Second, MaxRequests: 1}
	d, _ = m.Allow(ctx, "client-a", other)
	require.True(t, d.Allowed)
}

func TestMemoryBlockEscalation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := newTestMemory(clock)

	p := Policy{
		Name:        "coarse",
		Window:      time.Minute,
		MaxRequests: 3,
		BlockFor:    15 * time.Minute,
	}

	for range 3 {
		d, err := m.Allow(ctx, "abuser", p)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		clock.advance(time.Second)
	}

	// Crossing the threshold once starts the block.
	d, err := m.Allow(ctx, "abuser", p)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 15*time.Minute, d.RetryAfter)

	// While blocked, requests are rejected even after the window would have
	// rolled over, and the retry hint counts down.
	clock.advance(5 * time.Minute)
	d, err = m.Allow(ctx, "abuser", p)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 10*time.Minute, d.RetryAfter)

	// After the block expires the client starts fresh.
	clock.advance(10*time.Minute + time.Second)
	d, err = m.Allow(ctx, "abuser", p)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestMemoryAnomalyAnnotation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := newTestMemory(clock)

	p := Policy{Name: "coarse", Window: time.Minute, MaxRequests: 20}

	// Metronome traffic: identical 2s gaps. The classifier should flag it
	// once enough samples exist, but never reject for it.
	var last Decision
	for range 8 {
		var err error
		last, err = m.Allow(ctx, "bot", p)
		require.NoError(t, err)
		require.True(t, last.Allowed)
		clock.advance(2 * time.Second)
	}
	require.True(t, last.Anomalous)

	// Jittered traffic stays unflagged.
	gaps := []time.Duration{
		1 * time.Second, 7 * time.Second, 2 * time.Second,
		11 * time.Second, 3 * time.Second, 9 * time.Second, 5 * time.Second,
	}
	for _, g := range gaps {
		var err error
		last, err = m.Allow(ctx, "human", p)
		require.NoError(t, err)
		require.True(t, last.Allowed)
		clock.advance(g)
	}
	require.False(t, last.Anomalous)
}

func TestMemoryCleanupEvictsIdleKeys(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := newTestMemory(clock)

	p := Policy{Name: "fine", Window: time.Second, MaxRequests: 5}

	_, err := m.Allow(ctx, "ephemeral", p)
	require.NoError(t, err)
	require.Len(t, m.entries, 1)

	// Idle well past the stale horizon; the next request from anyone
	// triggers the passive sweep.
	clock.advance(time.Hour)
	_, err = m.Allow(ctx, "other", p)
	require.NoError(t, err)

	_, ok := m.entries["fine|ephemeral"]
	require.False(t, ok)
}
