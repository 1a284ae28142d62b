package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/domain"
	"github.com/aussiebroadwan/activault/internal/activation/store"
)

type codesRepo struct {
	q dbtx
}

const codeColumns = `id, code, created_at, expires_at, is_used, used_at, product_info, metadata`

func (r *codesRepo) CreateCode(ctx context.Context, c domain.ActivationCode) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO activation_codes (id, code, created_at, expires_at, is_used, used_at, product_info, metadata)
		VALUES (?, ?, ?, ?, 0, NULL, ?, ?)`,
		c.ID,
		c.Code,
		c.CreatedAt.UTC(),
		c.ExpiresAt.UTC(),
		mapJSON(c.ProductInfo),
		mapJSON(c.Metadata),
	)
	return mapConstraint(err)
}

func (r *codesRepo) GetCodeByToken(ctx context.Context, code string) (domain.ActivationCode, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+codeColumns+`
		FROM activation_codes
		WHERE code = ?`,
		code,
	)
	return scanCode(row)
}

// MarkCodeUsed is the single atomic conditional write behind redemption:
// the unused predicate is part of the UPDATE itself, so concurrent callers
// can never both observe an unused row and both flip it.
func (r *codesRepo) MarkCodeUsed(ctx context.Context, code string, usedAt time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE activation_codes
		SET is_used = 1, used_at = ?
		WHERE code = ? AND is_used = 0`,
		usedAt.UTC(),
		code,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *codesRepo) ListCodes(ctx context.Context, limit, offset int) ([]domain.ActivationCode, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+codeColumns+`
		FROM activation_codes
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	return scanCodes(rows)
}

func (r *codesRepo) FindCodes(ctx context.Context, f store.RetentionFilter) ([]domain.ActivationCode, error) {
	where, args := retentionClause(f)

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+codeColumns+`
		FROM activation_codes
		WHERE `+where+`
		ORDER BY created_at ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	return scanCodes(rows)
}

// DeleteCodes removes every matching row in one statement; RETURNING gives
// the audit trail without a separate racy read.
func (r *codesRepo) DeleteCodes(ctx context.Context, f store.RetentionFilter) ([]domain.ActivationCode, error) {
	where, args := retentionClause(f)

	rows, err := r.q.QueryContext(ctx, `
		DELETE FROM activation_codes
		WHERE `+where+`
		RETURNING `+codeColumns,
		args...,
	)
	if err != nil {
		return nil, err
	}
	return scanCodes(rows)
}

func (r *codesRepo) CountCodes(ctx context.Context, now time.Time) (store.CodeStats, error) {
	var s store.CodeStats
	row := r.q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_used = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_used = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_used = 0 AND expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_used = 0 AND expires_at > ? THEN 1 ELSE 0 END), 0)
		FROM activation_codes`,
		now.UTC(),
		now.UTC(),
	)
	if err := row.Scan(&s.Total, &s.Used, &s.Unused, &s.Expired, &s.Active); err != nil {
		return store.CodeStats{}, err
	}
	return s, nil
}

// retentionClause builds the WHERE clause for a retention filter. A filter
// without any cutoff matches nothing: an unbounded delete is never what a
// retention policy means.
func retentionClause(f store.RetentionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.UnusedOnly {
		conds = append(conds, "is_used = 0")
	}
	if f.CreatedBefore != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, f.CreatedBefore.UTC())
	}
	if f.ExpiredBefore != nil {
		conds = append(conds, "expires_at < ?")
		args = append(args, f.ExpiredBefore.UTC())
	}

	if f.CreatedBefore == nil && f.ExpiredBefore == nil {
		return "1 = 0", nil
	}
	return strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (domain.ActivationCode, error) {
	var (
		c           domain.ActivationCode
		usedAt      sql.NullTime
		productInfo string
		metadata    string
	)

	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.IsUsed,
		&usedAt,
		&productInfo,
		&metadata,
	)
	if err != nil {
		return domain.ActivationCode{}, mapNotFound(err)
	}

	c.CreatedAt = c.CreatedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	c.UsedAt = mapNullTimePtr(usedAt)
	c.ProductInfo = json.RawMessage(productInfo)
	c.Metadata = json.RawMessage(metadata)
	return c, nil
}

func scanCodes(rows *sql.Rows) ([]domain.ActivationCode, error) {
	defer rows.Close()

	var out []domain.ActivationCode
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
