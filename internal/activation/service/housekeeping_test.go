package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleansOnStart(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	retention := &RetentionService{Store: st, Now: fixedClock(now)}
	apiKeys := &APIKeyService{Store: st, Now: fixedClock(now)}

	seedCode(t, st, "STALE", now.Add(-10*time.Minute), now.Add(24*time.Hour), false)
	seedCode(t, st, "FRESH", now.Add(-1*time.Minute), now.Add(24*time.Hour), false)

	// An already-expired key the purge should collect.
	expiredKeys := &APIKeyService{Store: st, Now: fixedClock(now.Add(-48 * time.Hour))}
	_, _, err := expiredKeys.Mint(context.Background(), "old-key", time.Hour)
	require.NoError(t, err)

	stale, err := StaleUnusedPolicy(5)
	require.NoError(t, err)
	expired, err := ExpiredUnusedPolicy(30)
	require.NoError(t, err)

	svc := NewHousekeepingService(retention, apiKeys, slog.Default(), time.Hour, stale, expired)

	// The first cleanup runs before the ticker loop, so Start followed by
	// Stop is enough to observe one full pass.
	svc.Start()
	svc.Stop()

	left := remainingCodes(t, st)
	require.Equal(t, map[string]bool{"FRESH": true}, left)

	purged, err := apiKeys.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, purged, "cleanup already removed the expired key")
}
