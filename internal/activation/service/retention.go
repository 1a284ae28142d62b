package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
	"github.com/aussiebroadwan/activault/internal/activation/store"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

const (
	// DefaultStaleUnusedMinutes is the window after which an unused code is
	// considered abandoned regardless of its expiry horizon.
	DefaultStaleUnusedMinutes = 5
	// MinStaleUnusedMinutes and MaxStaleUnusedMinutes bound the
	// caller-supplied stale-unused window.
	MinStaleUnusedMinutes = 1
	MaxStaleUnusedMinutes = 1440

	// DefaultExpiredUnusedDays is the grace period after expiry before an
	// unredeemed code is removed.
	DefaultExpiredUnusedDays = 30
	// MaxExpiredUnusedDays bounds the caller-supplied grace period.
	MaxExpiredUnusedDays = 3650
)

// RetentionPolicy is a deletion predicate over activation codes. Both
// horizons are relative to execution time; zero disables that cutoff. A
// policy with no cutoff at all deletes nothing.
type RetentionPolicy struct {
	Name       string
	UnusedOnly bool

	// CreatedOlderThan matches codes created before now minus this value.
	CreatedOlderThan time.Duration

	// ExpiredOlderThan matches codes whose expiry passed before now minus
	// this value.
	ExpiredOlderThan time.Duration
}

// StaleUnusedPolicy builds the abandoned-code policy. minutes of 0 means
// the default window; out-of-range values are rejected.
func StaleUnusedPolicy(minutes int) (RetentionPolicy, error) {
	if minutes == 0 {
		minutes = DefaultStaleUnusedMinutes
	}
	if minutes < MinStaleUnusedMinutes || minutes > MaxStaleUnusedMinutes {
		return RetentionPolicy{}, ErrInvalidRequest
	}
	return RetentionPolicy{
		Name:             "stale-unused",
		UnusedOnly:       true,
		CreatedOlderThan: time.Duration(minutes) * time.Minute,
	}, nil
}

// ExpiredUnusedPolicy builds the post-expiry grace policy. days of 0 means
// the default grace period; out-of-range values are rejected.
func ExpiredUnusedPolicy(days int) (RetentionPolicy, error) {
	if days == 0 {
		days = DefaultExpiredUnusedDays
	}
	if days < 1 || days > MaxExpiredUnusedDays {
		return RetentionPolicy{}, ErrInvalidRequest
	}
	return RetentionPolicy{
		Name:             "expired-unused",
		UnusedOnly:       true,
		ExpiredOlderThan: time.Duration(days) * 24 * time.Hour,
	}, nil
}

func (p RetentionPolicy) filter(now time.Time) store.RetentionFilter {
	f := store.RetentionFilter{UnusedOnly: p.UnusedOnly}
	if p.CreatedOlderThan > 0 {
		cutoff := now.Add(-p.CreatedOlderThan)
		f.CreatedBefore = &cutoff
	}
	if p.ExpiredOlderThan > 0 {
		cutoff := now.Add(-p.ExpiredOlderThan)
		f.ExpiredBefore = &cutoff
	}
	return f
}

// SweepResult reports what a retention pass removed (or would remove).
type SweepResult struct {
	Policy       string
	DeletedCount int
	Deleted      []domain.ActivationCode
}

// RetentionService evaluates retention policies against the store. Sweeps
// only ever touch rows no redemption can succeed on, so policies commute
// with each other and with the redemption path.
type RetentionService struct {
	Store store.Store

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *RetentionService) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Preview reports the codes a policy would delete without deleting them.
func (s *RetentionService) Preview(ctx context.Context, p RetentionPolicy) (SweepResult, error) {
	matched, err := s.Store.Codes().FindCodes(ctx, p.filter(s.clock()))
	if err != nil {
		return SweepResult{}, err
	}
	return SweepResult{
		Policy:       p.Name,
		DeletedCount: len(matched),
		Deleted:      matched,
	}, nil
}

// Execute deletes every code the policy matches and returns the removed
// records for the audit trail.
func (s *RetentionService) Execute(ctx context.Context, p RetentionPolicy) (SweepResult, error) {
	log := slogx.FromContext(ctx)

	deleted, err := s.Store.Codes().DeleteCodes(ctx, p.filter(s.clock()))
	if err != nil {
		log.Error("retention sweep failed",
			slog.String("policy", p.Name),
			slog.Any("error", err),
		)
		return SweepResult{}, err
	}

	if len(deleted) > 0 {
		log.Info("retention sweep removed codes",
			slog.String("policy", p.Name),
			slog.Int("count", len(deleted)),
		)
	}

	return SweepResult{
		Policy:       p.Name,
		DeletedCount: len(deleted),
		Deleted:      deleted,
	}, nil
}
