package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RevokedTokensRepo is the durable side of the denylist. Redis fronts it
// with TTL'd keys; this table is the source of truth.
type RevokedTokensRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRevokedTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RevokedTokensRepo {
	return &RevokedTokensRepo{pool: pool, prom: prom}
}

func (r *RevokedTokensRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Revoke records a token's jti. Repeated logouts with the same token
// collapse onto one row, which keeps the caller-facing call idempotent.
func (r *RevokedTokensRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.observe("revoked_tokens.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO revoked_tokens (jti, expires_at, revoked_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (jti) DO NOTHING
		`, jti, expiresAt.UTC())
		return err
	})
}

func (r *RevokedTokensRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool

	err := r.observe("revoked_tokens.is_revoked", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)
		`, jti).Scan(&exists)
	})

	if err != nil {
		return false, err
	}

	return exists, nil
}

// PurgeExpired drops rows whose underlying token has already expired.
// Once a token is past its expiry the signature check rejects it anyway,
// so the denylist entry carries no information.
func (r *RevokedTokensRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64

	err := r.observe("revoked_tokens.purge_expired", func() error {
		tag, err := r.pool.Exec(ctx, `
			DELETE FROM revoked_tokens WHERE expires_at <= $1
		`, now.UTC())

		if err != nil {
			return err
		}

		purged = tag.RowsAffected()
		return nil
	})

	return purged, err
}
