package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
	"github.com/aussiebroadwan/activault/internal/activation/store"
	"github.com/aussiebroadwan/activault/internal/activation/store/drivers/sqlite"
	"github.com/aussiebroadwan/activault/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "activault.db")
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &CodeService{Store: st}

	t.Run("rejects negative expiration", func(t *testing.T) {
		_, err := svc.Generate(ctx, -1, nil, nil)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("rejects expiration beyond the sanity bound", func(t *testing.T) {
		_, err := svc.Generate(ctx, MaxExpiryDays+1, nil, nil)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("rejects malformed payload JSON", func(t *testing.T) {
		_, err := svc.Generate(ctx, 30, json.RawMessage(`{"broken`), nil)
		require.ErrorIs(t, err, ErrInvalidRequest)

		_, err = svc.Generate(ctx, 30, nil, json.RawMessage(`not json`))
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("zero means the default horizon", func(t *testing.T) {
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		svc := &CodeService{Store: st, Now: fixedClock(now)}

		code, err := svc.Generate(ctx, 0, nil, nil)
		require.NoError(t, err)
		require.Equal(t, now.Add(DefaultExpiryDays*24*time.Hour), code.ExpiresAt)
	})

	t.Run("empty payloads default to empty objects", func(t *testing.T) {
		code, err := svc.Generate(ctx, 30, nil, nil)
		require.NoError(t, err)
		require.JSONEq(t, `{}`, string(code.ProductInfo))
		require.JSONEq(t, `{}`, string(code.Metadata))
	})
}

func TestGenerateProducesDistinctWellFormedCodes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := &CodeService{Store: newTestStore(t)}

	seen := make(map[string]bool)
	for range 100 {
		code, err := svc.Generate(ctx, 30, nil, nil)
		require.NoError(t, err)

		require.False(t, seen[code.Code], "duplicate code %q", code.Code)
		seen[code.Code] = true

		require.Equal(t, strings.ToUpper(code.Code), code.Code)
		require.Len(t, strings.Split(code.Code, "-"), 3)
		require.True(t, code.ExpiresAt.After(code.CreatedAt))
	}
}

func TestRedeemLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := &CodeService{Store: st, Now: fixedClock(now)}

	code, err := svc.Generate(ctx, 30, json.RawMessage(`{"product":"widget"}`), nil)
	require.NoError(t, err)

	t.Run("unknown code", func(t *testing.T) {
		_, _, err := svc.Redeem(ctx, "NOSUCHCODE")
		require.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("blank code", func(t *testing.T) {
		_, _, err := svc.Redeem(ctx, "   ")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("first redemption succeeds with remaining time", func(t *testing.T) {
		// Redeem a day after minting; input case and whitespace are tolerated.
		later := now.Add(24 * time.Hour)
		svc.Now = fixedClock(later)

		redeemed, remaining, err := svc.Redeem(ctx, "  "+strings.ToLower(code.Code)+" ")
		require.NoError(t, err)
		require.True(t, redeemed.IsUsed)
		require.NotNil(t, redeemed.UsedAt)
		require.WithinDuration(t, later, redeemed.UsedAt.UTC(), 0)

		require.Equal(t, 29, remaining.Days)
		require.Equal(t, int64(29*24*3600), remaining.TotalSeconds)
	})

	t.Run("second redemption reports the original used_at", func(t *testing.T) {
		svc.Now = fixedClock(now.Add(48 * time.Hour))

		redeemed, _, err := svc.Redeem(ctx, code.Code)
		require.ErrorIs(t, err, ErrCodeAlreadyUsed)
		require.NotNil(t, redeemed.UsedAt)
		require.WithinDuration(t, now.Add(24*time.Hour), redeemed.UsedAt.UTC(), 0)
	})
}

func TestRedeemExpiredCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := &CodeService{Store: st, Now: fixedClock(now)}

	code, err := svc.Generate(ctx, 1, nil, nil)
	require.NoError(t, err)

	t.Run("still valid one second before expiry", func(t *testing.T) {
		svc.Now = fixedClock(now.Add(24*time.Hour - time.Second))
		_, remaining, err := svc.Redeem(ctx, code.Code)
		require.NoError(t, err)
		require.Equal(t, int64(1), remaining.TotalSeconds)
	})

	t.Run("refused at the expiry instant", func(t *testing.T) {
		expired, err := svc.Generate(ctx, 1, nil, nil)
		require.NoError(t, err)

		svc.Now = fixedClock(expired.ExpiresAt)

		got, _, err := svc.Redeem(ctx, expired.Code)
		require.ErrorIs(t, err, ErrCodeExpired)
		require.False(t, got.IsUsed)

		// Expired codes stay readable until the retention sweep removes them.
		_, err = svc.GetByCode(ctx, expired.Code)
		require.NoError(t, err)
	})
}

func TestRedeemConcurrentExactlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc := &CodeService{Store: st}

	code, err := svc.Generate(ctx, 30, nil, nil)
	require.NoError(t, err)

	const redeemers = 16

	var wg sync.WaitGroup
	results := make([]error, redeemers)

	for i := range redeemers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, results[i] = svc.Redeem(ctx, code.Code)
		}()
	}
	wg.Wait()

	var successes, usedErrs int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, ErrCodeAlreadyUsed)
		usedErrs++
	}

	require.Equal(t, 1, successes)
	require.Equal(t, redeemers-1, usedErrs)

	// Every loser reports the winner's used_at.
	final, err := svc.GetByCode(ctx, code.Code)
	require.NoError(t, err)
	require.True(t, final.IsUsed)
	require.NotNil(t, final.UsedAt)
}

// sweptStore drops every unused code right before the redemption
// transaction begins, standing in for a retention sweep landing between a
// redemption's lookup and its conditional write.
type sweptStore struct {
	store.Store
}

func (s *sweptStore) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	cutoff := time.Now().UTC().Add(time.Hour)
	if _, err := s.Store.Codes().DeleteCodes(ctx, store.RetentionFilter{
		UnusedOnly:    true,
		CreatedBefore: &cutoff,
	}); err != nil {
		return err
	}
	return s.Store.WithTx(ctx, fn)
}

func TestRedeemCodeSweptMidFlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	svc := &CodeService{Store: st}
	code, err := svc.Generate(ctx, 30, nil, nil)
	require.NoError(t, err)

	// The row vanishes under the redemption; that surfaces as not-found,
	// not as a storage failure.
	svc.Store = &sweptStore{Store: st}
	_, _, err = svc.Redeem(ctx, code.Code)
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestRedeemRunsOpportunisticSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	retention := &RetentionService{Store: st, Now: fixedClock(now)}
	svc := &CodeService{
		Store:            st,
		Retention:        retention,
		StaleUnusedAfter: 5 * time.Minute,
		Now:              fixedClock(now),
	}

	stale := domain.ActivationCode{
		ID:          idx.New().String(),
		Code:        "STALE-CODE-0001",
		CreatedAt:   now.Add(-10 * time.Minute),
		ExpiresAt:   now.Add(24 * time.Hour),
		ProductInfo: json.RawMessage(`{}`),
		Metadata:    json.RawMessage(`{}`),
	}
	require.NoError(t, st.Codes().CreateCode(ctx, stale))

	fresh, err := svc.Generate(ctx, 30, nil, nil)
	require.NoError(t, err)

	_, _, err = svc.Redeem(ctx, fresh.Code)
	require.NoError(t, err)

	// The stale unused code was collected on the way in.
	_, err = svc.GetByCode(ctx, stale.Code)
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := &CodeService{Store: st, Now: fixedClock(now)}

	t.Run("empty store reports zeroes", func(t *testing.T) {
		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, Stats{}, stats)
	})

	// Fixture: 2 used, 1 active unused, 1 expired unused.
	for range 2 {
		code, err := svc.Generate(ctx, 30, nil, nil)
		require.NoError(t, err)
		_, _, err = svc.Redeem(ctx, code.Code)
		require.NoError(t, err)
	}
	_, err := svc.Generate(ctx, 30, nil, nil)
	require.NoError(t, err)

	expired := domain.ActivationCode{
		ID:          idx.New().String(),
		Code:        "EXPIRED-CODE-01",
		CreatedAt:   now.Add(-48 * time.Hour),
		ExpiresAt:   now.Add(-24 * time.Hour),
		ProductInfo: json.RawMessage(`{}`),
		Metadata:    json.RawMessage(`{}`),
	}
	require.NoError(t, st.Codes().CreateCode(ctx, expired))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), stats.Total)
	require.Equal(t, int64(2), stats.Used)
	require.Equal(t, int64(2), stats.Unused)
	require.Equal(t, int64(1), stats.Expired)
	require.Equal(t, int64(1), stats.Active)
	require.Equal(t, 50.0, stats.UsageRate)
	require.Equal(t, 25.0, stats.ExpirationRate)
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := &CodeService{Store: newTestStore(t)}

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := range 5 {
		svc.Now = fixedClock(base.Add(time.Duration(i) * time.Minute))
		_, err := svc.Generate(ctx, 30, nil, nil)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)

	// Newest first.
	require.WithinDuration(t, base.Add(4*time.Minute), page[0].CreatedAt, 0)

	rest, err := svc.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
}
