package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpiredBoundary(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	code := ActivationCode{ExpiresAt: expiry}

	require.False(t, code.Expired(expiry.Add(-time.Second)))
	require.True(t, code.Expired(expiry), "expiry instant itself counts as expired")
	require.True(t, code.Expired(expiry.Add(time.Second)))
}

func TestRemainingUntil(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("decomposes into display components", func(t *testing.T) {
		remaining := RemainingUntil(now.Add(29*24*time.Hour+5*time.Hour+30*time.Minute+15*time.Second), now)
		require.Equal(t, 29, remaining.Days)
		require.Equal(t, 5, remaining.Hours)
		require.Equal(t, 30, remaining.Minutes)
		require.Equal(t, int64(29*86400+5*3600+30*60+15), remaining.TotalSeconds)
	})

	t.Run("floors at zero once expiry has passed", func(t *testing.T) {
		remaining := RemainingUntil(now.Add(-time.Hour), now)
		require.Equal(t, RemainingTime{}, remaining)
	})
}
