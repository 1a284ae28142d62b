package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
)

type apiKeysRepo struct {
	q dbtx
}

func (r *apiKeysRepo) CreateAPIKey(ctx context.Context, k domain.APIKey) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO api_keys (id, name, secret_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		k.ID,
		k.Name,
		k.SecretHash,
		k.CreatedAt.UTC(),
		k.ExpiresAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *apiKeysRepo) GetAPIKeyByID(ctx context.Context, id string) (domain.APIKey, error) {
	var k domain.APIKey
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, secret_hash, created_at, expires_at
		FROM api_keys
		WHERE id = ?`,
		id,
	)
	if err := row.Scan(&k.ID, &k.Name, &k.SecretHash, &k.CreatedAt, &k.ExpiresAt); err != nil {
		return domain.APIKey{}, mapNotFound(err)
	}

	k.CreatedAt = k.CreatedAt.UTC()
	k.ExpiresAt = k.ExpiresAt.UTC()
	return k, nil
}

func (r *apiKeysRepo) DeleteExpiredAPIKeys(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM api_keys
		WHERE expires_at < ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
