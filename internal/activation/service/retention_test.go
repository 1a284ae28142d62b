package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
	"github.com/aussiebroadwan/activault/internal/activation/store"
	"github.com/aussiebroadwan/activault/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestRetentionPolicyConstructors(t *testing.T) {
	t.Parallel()

	t.Run("stale-unused defaults and bounds", func(t *testing.T) {
		p, err := StaleUnusedPolicy(0)
		require.NoError(t, err)
		require.Equal(t, DefaultStaleUnusedMinutes*time.Minute, p.CreatedOlderThan)
		require.True(t, p.UnusedOnly)

		_, err = StaleUnusedPolicy(-1)
		require.ErrorIs(t, err, ErrInvalidRequest)

		_, err = StaleUnusedPolicy(MaxStaleUnusedMinutes + 1)
		require.ErrorIs(t, err, ErrInvalidRequest)

		p, err = StaleUnusedPolicy(MaxStaleUnusedMinutes)
		require.NoError(t, err)
		require.Equal(t, 24*time.Hour, p.CreatedOlderThan)
	})

	t.Run("expired-unused defaults and bounds", func(t *testing.T) {
		p, err := ExpiredUnusedPolicy(0)
		require.NoError(t, err)
		require.Equal(t, DefaultExpiredUnusedDays*24*time.Hour, p.ExpiredOlderThan)
		require.True(t, p.UnusedOnly)

		_, err = ExpiredUnusedPolicy(-7)
		require.ErrorIs(t, err, ErrInvalidRequest)

		_, err = ExpiredUnusedPolicy(MaxExpiredUnusedDays + 1)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

// seedCode inserts a code with explicit lifecycle timestamps, bypassing the
// generation path so sweeps can be tested against exact ages.
func seedCode(t *testing.T, st store.Store, name string, createdAt, expiresAt time.Time, used bool) domain.ActivationCode {
	t.Helper()

	code := domain.ActivationCode{
		ID:          idx.New().String(),
		Code:        name,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
		ProductInfo: json.RawMessage(`{}`),
		Metadata:    json.RawMessage(`{}`),
	}
	require.NoError(t, st.Codes().CreateCode(context.Background(), code))

	if used {
		usedAt := createdAt.Add(time.Minute)
		won, err := st.Codes().MarkCodeUsed(context.Background(), name, usedAt)
		require.NoError(t, err)
		require.True(t, won)
	}
	return code
}

func remainingCodes(t *testing.T, st store.Store) map[string]bool {
	t.Helper()

	codes, err := st.Codes().ListCodes(context.Background(), 100, 0)
	require.NoError(t, err)

	out := make(map[string]bool, len(codes))
	for _, c := range codes {
		out[c.Code] = true
	}
	return out
}

func TestStaleUnusedSweep(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := &RetentionService{Store: st, Now: fixedClock(now)}

	horizon := now.Add(30 * 24 * time.Hour)
	seedCode(t, st, "OLD-UNUSED", now.Add(-10*time.Minute), horizon, false)
	seedCode(t, st, "OLD-USED", now.Add(-10*time.Minute), horizon, true)
	seedCode(t, st, "FRESH-UNUSED", now.Add(-2*time.Minute), horizon, false)

	policy, err := StaleUnusedPolicy(5)
	require.NoError(t, err)

	t.Run("preview matches without deleting", func(t *testing.T) {
		result, err := svc.Preview(context.Background(), policy)
		require.NoError(t, err)
		require.Equal(t, 1, result.DeletedCount)
		require.Equal(t, "OLD-UNUSED", result.Deleted[0].Code)

		require.Len(t, remainingCodes(t, st), 3)
	})

	t.Run("execute removes only stale unused codes", func(t *testing.T) {
		result, err := svc.Execute(context.Background(), policy)
		require.NoError(t, err)
		require.Equal(t, 1, result.DeletedCount)
		require.Equal(t, "OLD-UNUSED", result.Deleted[0].Code)

		left := remainingCodes(t, st)
		require.True(t, left["OLD-USED"], "used codes are never swept")
		require.True(t, left["FRESH-UNUSED"], "codes inside the window survive")
		require.False(t, left["OLD-UNUSED"])
	})

	t.Run("second execute is a no-op", func(t *testing.T) {
		result, err := svc.Execute(context.Background(), policy)
		require.NoError(t, err)
		require.Zero(t, result.DeletedCount)
	})
}

func TestExpiredUnusedSweep(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := &RetentionService{Store: st, Now: fixedClock(now)}

	// Created recently enough that the stale-unused policy is not what
	// matters here; the expiry ages are.
	seedCode(t, st, "LONG-EXPIRED", now.Add(-100*24*time.Hour), now.Add(-40*24*time.Hour), false)
	seedCode(t, st, "LONG-EXPIRED-USED", now.Add(-100*24*time.Hour), now.Add(-40*24*time.Hour), true)
	seedCode(t, st, "RECENTLY-EXPIRED", now.Add(-100*24*time.Hour), now.Add(-10*24*time.Hour), false)
	seedCode(t, st, "STILL-ACTIVE", now.Add(-100*24*time.Hour), now.Add(10*24*time.Hour), false)

	policy, err := ExpiredUnusedPolicy(30)
	require.NoError(t, err)

	result, err := svc.Execute(context.Background(), policy)
	require.NoError(t, err)
	require.Equal(t, 1, result.DeletedCount)
	require.Equal(t, "LONG-EXPIRED", result.Deleted[0].Code)

	left := remainingCodes(t, st)
	require.True(t, left["LONG-EXPIRED-USED"], "redeemed codes are retained")
	require.True(t, left["RECENTLY-EXPIRED"], "grace period not yet over")
	require.True(t, left["STILL-ACTIVE"])
}

// Sweep order must not matter: each policy only matches rows no redemption
// can succeed on, so the surviving set is the same either way.
func TestSweepOrderIndependence(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	seed := func(st store.Store) {
		seedCode(t, st, "STALE", now.Add(-10*time.Minute), now.Add(24*time.Hour), false)
		seedCode(t, st, "LONG-EXPIRED", now.Add(-100*24*time.Hour), now.Add(-40*24*time.Hour), false)
		seedCode(t, st, "KEEP-FRESH", now.Add(-1*time.Minute), now.Add(24*time.Hour), false)
		seedCode(t, st, "KEEP-USED", now.Add(-10*time.Minute), now.Add(24*time.Hour), true)
	}

	stale, err := StaleUnusedPolicy(5)
	require.NoError(t, err)
	expired, err := ExpiredUnusedPolicy(30)
	require.NoError(t, err)

	run := func(order []RetentionPolicy) map[string]bool {
		st := newTestStore(t)
		seed(st)

		svc := &RetentionService{Store: st, Now: fixedClock(now)}
		for _, p := range order {
			_, err := svc.Execute(context.Background(), p)
			require.NoError(t, err)
		}
		return remainingCodes(t, st)
	}

	forward := run([]RetentionPolicy{stale, expired})
	reverse := run([]RetentionPolicy{expired, stale})

	expect := map[string]bool{"KEEP-FRESH": true, "KEEP-USED": true}
	require.Equal(t, expect, forward)
	require.Equal(t, expect, reverse)
}

func TestPolicyWithoutCutoffDeletesNothing(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := &RetentionService{Store: st, Now: fixedClock(now)}

	for i := range 3 {
		seedCode(t, st, fmt.Sprintf("CODE-%d", i), now.Add(-time.Hour), now.Add(time.Hour), false)
	}

	result, err := svc.Execute(context.Background(), RetentionPolicy{Name: "empty", UnusedOnly: true})
	require.NoError(t, err)
	require.Zero(t, result.DeletedCount)
	require.Len(t, remainingCodes(t, st), 3)
}
