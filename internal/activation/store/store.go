package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Codes() Codes
	APIKeys() APIKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// RetentionFilter is the predicate shared by every retention policy:
// preview and delete use the same filter, so what an operator previews is
// exactly what an execute would remove.
type RetentionFilter struct {
	// UnusedOnly restricts matching to codes that were never redeemed.
	UnusedOnly bool
	// CreatedBefore matches codes created before the cutoff (stale-unused policy).
	CreatedBefore *time.Time
	// ExpiredBefore matches codes whose expiry passed before the cutoff
	// (expired-unused policy).
	ExpiredBefore *time.Time
}

// CodeStats is a snapshot of code counts by status. Expired/Active split
// the unused population around the provided reference time.
type CodeStats struct {
	Total   int64
	Used    int64
	Unused  int64
	Expired int64
	Active  int64
}

type Codes interface {
	// CreateCode inserts a new unused code (id is provided by app via ULID).
	// Returns ErrAlreadyExists if the code token collides; the caller must
	// treat that as retryable with a fresh token.
	CreateCode(ctx context.Context, c domain.ActivationCode) error

	// GetCodeByToken returns a code by its unique token value.
	GetCodeByToken(ctx context.Context, code string) (domain.ActivationCode, error)

	// MarkCodeUsed performs the atomic conditional unused->used transition:
	// the row is updated only if it is still unused at the moment of the
	// write. Returns false when another caller already won the race.
	MarkCodeUsed(ctx context.Context, code string, usedAt time.Time) (bool, error)

	// ListCodes returns codes ordered by creation date (newest first).
	ListCodes(ctx context.Context, limit, offset int) ([]domain.ActivationCode, error)

	// FindCodes returns the codes matching a retention filter without
	// touching them (preview).
	FindCodes(ctx context.Context, f RetentionFilter) ([]domain.ActivationCode, error)

	// DeleteCodes permanently removes the codes matching a retention filter
	// in a single atomic statement and returns the removed rows for audit
	// logging. No soft delete; deletion is terminal.
	DeleteCodes(ctx context.Context, f RetentionFilter) ([]domain.ActivationCode, error)

	// CountCodes computes the stats snapshot in one consistent read.
	CountCodes(ctx context.Context, now time.Time) (CodeStats, error)
}

type APIKeys interface {
	// CreateAPIKey stores a new key record (secret already hashed).
	CreateAPIKey(ctx context.Context, k domain.APIKey) error

	// GetAPIKeyByID fetches a key by its identifier for verification.
	GetAPIKeyByID(ctx context.Context, id string) (domain.APIKey, error)

	// DeleteExpiredAPIKeys removes keys past their expiration window
	// (housekeeping). Returns the number of rows removed.
	DeleteExpiredAPIKeys(ctx context.Context, now time.Time) (int64, error)
}
