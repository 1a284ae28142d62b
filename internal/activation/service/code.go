package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
	"github.com/aussiebroadwan/activault/internal/activation/store"
	"github.com/aussiebroadwan/activault/pkg/idx"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrCodeNotFound    = errors.New("activation code not found")
	ErrCodeAlreadyUsed = errors.New("activation code has already been used")
	ErrCodeExpired     = errors.New("activation code has expired")
	ErrCodeCollision   = errors.New("activation code value collision")
)

const (
	// DefaultExpiryDays applies when the caller does not supply a horizon.
	DefaultExpiryDays = 365
	// MaxExpiryDays is the sanity bound on caller-supplied horizons.
	MaxExpiryDays = 3650

	defaultListLimit = 50
	maxListLimit     = 500
)

// CodeService owns the activation-code lifecycle: generation, the
// unused->used state machine, reads, and the stats rollup.
type CodeService struct {
	Store     store.Store
	Retention *RetentionService

	// StaleUnusedAfter is the horizon for the opportunistic stale-unused
	// sweep that runs ahead of each redemption. Zero disables it.
	StaleUnusedAfter time.Duration

	// DefaultDays overrides the package default expiry horizon when a
	// request carries none. Zero keeps DefaultExpiryDays.
	DefaultDays int

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *CodeService) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Generate mints a new unused activation code.
//
// expirationDays of 0 means the default horizon. A uniqueness violation
// from the store surfaces as ErrCodeCollision: the token format makes a
// collision vanishingly unlikely, so the caller just retries with a fresh
// generation rather than this layer looping.
func (s *CodeService) Generate(
	ctx context.Context,
	expirationDays int,
	productInfo json.RawMessage,
	metadata json.RawMessage,
) (domain.ActivationCode, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate before any persistence is touched.
	if expirationDays == 0 {
		expirationDays = s.DefaultDays
	}
	if expirationDays == 0 {
		expirationDays = DefaultExpiryDays
	}
	if expirationDays < 0 || expirationDays > MaxExpiryDays {
		log.Warn("rejected generate with bad expiration horizon", slog.Int("days", expirationDays))
		return domain.ActivationCode{}, ErrInvalidRequest
	}
	if len(productInfo) > 0 && !json.Valid(productInfo) {
		return domain.ActivationCode{}, ErrInvalidRequest
	}
	if len(metadata) > 0 && !json.Valid(metadata) {
		return domain.ActivationCode{}, ErrInvalidRequest
	}

	// 2. Build the code token and record.
	now := s.clock()
	token, err := newCodeToken(now)
	if err != nil {
		log.Error("failed to generate code token", slog.Any("error", err))
		return domain.ActivationCode{}, err
	}

	code := domain.ActivationCode{
		ID:          idx.New().String(),
		Code:        token,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(expirationDays) * 24 * time.Hour),
		IsUsed:      false,
		ProductInfo: normalizeJSON(productInfo),
		Metadata:    normalizeJSON(metadata),
	}

	// 3. Persist. The UNIQUE index is the authority on the uniqueness
	// invariant, whatever the token format promises.
	if err := s.Store.Codes().CreateCode(ctx, code); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("activation code collided", slog.String("code_id", code.ID))
			return domain.ActivationCode{}, ErrCodeCollision
		}
		log.Error("failed to persist activation code", slog.Any("error", err))
		return domain.ActivationCode{}, err
	}

	log.Debug("activation code generated",
		slog.String("code_id", code.ID),
		slog.Int("expiration_days", expirationDays),
		slog.Time("expires_at", code.ExpiresAt),
	)

	return code, nil
}

// Redeem transitions a code from unused to used, exactly once.
//
// The check-then-set is a single conditional UPDATE at the store, so N
// concurrent redeemers of the same code resolve to one success and N-1
// AlreadyUsed outcomes. A caller whose request timed out after the write
// may have succeeded without learning it; the remedy is to re-verify via
// GetByCode, never to retry Redeem.
func (s *CodeService) Redeem(ctx context.Context, rawCode string) (domain.ActivationCode, domain.RemainingTime, error) {
	log := slogx.FromContext(ctx)

	// Opportunistically clear abandoned codes so they don't pile up.
	// Operates only on rows already ineligible for redemption, so it
	// cannot interfere with the conditional write below.
	s.sweepStaleUnused(ctx)

	// 1. Normalize the token.
	token := strings.ToUpper(strings.TrimSpace(rawCode))
	if token == "" {
		return domain.ActivationCode{}, domain.RemainingTime{}, ErrInvalidRequest
	}

	// 2. Look the code up.
	code, err := s.Store.Codes().GetCodeByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("redemption attempted with unknown code")
			return domain.ActivationCode{}, domain.RemainingTime{}, ErrCodeNotFound
		}
		log.Error("failed to fetch activation code", slog.Any("error", err))
		return domain.ActivationCode{}, domain.RemainingTime{}, err
	}

	// 3. Already used: return the record so the caller can surface used_at.
	if code.IsUsed {
		log.Warn("redemption attempted with already-used code",
			slog.String("code_id", code.ID),
		)
		return code, domain.RemainingTime{}, ErrCodeAlreadyUsed
	}

	// 4. Expired codes refuse redemption but are not deleted here; the
	// expired-unused retention policy owns their removal.
	now := s.clock()
	if code.Expired(now) {
		log.Warn("redemption attempted with expired code",
			slog.String("code_id", code.ID),
			slog.Time("expires_at", code.ExpiresAt),
		)
		return code, domain.RemainingTime{}, ErrCodeExpired
	}

	// 5. Atomic conditional write plus re-read, in one transaction. Zero
	// rows affected means another caller won the race between our read and
	// this write; the re-read happens either way, because the loser needs
	// the winner's used_at and the winner needs the authoritative record.
	var won bool
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		won, err = tx.Codes().MarkCodeUsed(ctx, token, now)
		if err != nil {
			return err
		}
		code, err = tx.Codes().GetCodeByToken(ctx, token)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A retention sweep removed the row between the lookup and the
			// write; to the caller that is just a missing code.
			log.Warn("activation code removed mid-redemption")
			return domain.ActivationCode{}, domain.RemainingTime{}, ErrCodeNotFound
		}
		log.Error("failed to finalize redemption", slog.Any("error", err))
		return domain.ActivationCode{}, domain.RemainingTime{}, err
	}

	if !won {
		log.Warn("lost redemption race", slog.String("code_id", code.ID))
		return code, domain.RemainingTime{}, ErrCodeAlreadyUsed
	}

	remaining := domain.RemainingUntil(code.ExpiresAt, now)

	log.Info("activation code redeemed",
		slog.String("code_id", code.ID),
		slog.Int64("remaining_seconds", remaining.TotalSeconds),
	)

	return code, remaining, nil
}

// GetByCode is the read-only lookup used for detail views and for
// re-verifying after an ambiguous redemption timeout.
func (s *CodeService) GetByCode(ctx context.Context, rawCode string) (domain.ActivationCode, error) {
	token := strings.ToUpper(strings.TrimSpace(rawCode))
	if token == "" {
		return domain.ActivationCode{}, ErrInvalidRequest
	}

	code, err := s.Store.Codes().GetCodeByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ActivationCode{}, ErrCodeNotFound
		}
		return domain.ActivationCode{}, err
	}
	return code, nil
}

// List returns a newest-first page of codes for operators.
func (s *CodeService) List(ctx context.Context, limit, offset int) ([]domain.ActivationCode, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.Codes().ListCodes(ctx, limit, offset)
}

// Stats is the read-only rollup of the code table.
type Stats struct {
	Total   int64
	Used    int64
	Unused  int64
	Expired int64
	Active  int64

	// Percentages rounded to 2 decimal places; 0 when the store is empty.
	UsageRate      float64
	ExpirationRate float64
}

// Stats computes counts and rates from a single consistent snapshot read.
func (s *CodeService) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.Store.Codes().CountCodes(ctx, s.clock())
	if err != nil {
		return Stats{}, err
	}

	out := Stats{
		Total:   counts.Total,
		Used:    counts.Used,
		Unused:  counts.Unused,
		Expired: counts.Expired,
		Active:  counts.Active,
	}
	if counts.Total > 0 {
		out.UsageRate = round2(float64(counts.Used) / float64(counts.Total) * 100)
		out.ExpirationRate = round2(float64(counts.Expired) / float64(counts.Total) * 100)
	}
	return out, nil
}

// sweepStaleUnused runs the stale-unused retention pass ahead of a
// redemption. Failures are logged and swallowed: cleanup must never break
// redemption.
func (s *CodeService) sweepStaleUnused(ctx context.Context) {
	if s.Retention == nil || s.StaleUnusedAfter <= 0 {
		return
	}
	log := slogx.FromContext(ctx)

	policy := RetentionPolicy{
		Name:             "stale-unused",
		UnusedOnly:       true,
		CreatedOlderThan: s.StaleUnusedAfter,
	}

	result, err := s.Retention.Execute(ctx, policy)
	if err != nil {
		log.Error("opportunistic stale-unused sweep failed", slog.Any("error", err))
		return
	}
	if result.DeletedCount > 0 {
		log.Debug("opportunistic sweep removed stale codes", slog.Int("count", result.DeletedCount))
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func normalizeJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}

// codeAlphabet avoids ambiguous characters like O/0, I/1 and l.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newCodeToken builds the code value from a time component, a random
// component, and the random tail of a ULID, uppercased and dash-grouped.
// Collisions are negligible; the UNIQUE index backstops them anyway.
func newCodeToken(now time.Time) (string, error) {
	timePart := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}

	ulid := idx.New().String()
	tail := ulid[len(ulid)-8:]

	return timePart + "-" + string(buf) + "-" + tail, nil
}
