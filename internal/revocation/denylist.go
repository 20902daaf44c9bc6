package revocation

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Store is the durable denylist (postgres).
type Store interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Denylist fronts the durable store with redis keys that expire on their
// own when the underlying token does. Redis being down never fails a
// request closed on its own; the durable store still answers.
type Denylist struct {
	store        Store
	rdb          *redis.Client
	log          *slog.Logger
	revokedTotal prometheus.Counter
}

func NewDenylist(store Store, rdb *redis.Client, log *slog.Logger) *Denylist {
	return &Denylist{
		store: store,
		rdb:   rdb,
		log:   log,
	}
}

// WithRevokedCounter counts successful revocations.
func (d *Denylist) WithRevokedCounter(c prometheus.Counter) *Denylist {
	d.revokedTotal = c
	return d
}

func redisKey(jti string) string {
	return "revoked:" + jti
}

func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	err := d.store.Revoke(ctx, jti, expiresAt)

	if err != nil {
		return err
	}

	if d.revokedTotal != nil {
		d.revokedTotal.Inc()
	}

	ttl := time.Until(expiresAt)

	if ttl <= 0 {
		// token already expired, nothing to cache
		return nil
	}

	if d.rdb != nil {
		err = d.rdb.Set(ctx, redisKey(jti), "1", ttl).Err()

		if err != nil {
			// durable write succeeded, cache write is best effort
			d.log.Warn("denylist cache write failed", "err", err)
		}
	}

	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d.rdb != nil {
		n, err := d.rdb.Exists(ctx, redisKey(jti)).Result()

		if err == nil && n > 0 {
			return true, nil
		}

		if err != nil {
			d.log.Warn("denylist cache read failed", "err", err)
		}
	}

	return d.store.IsRevoked(ctx, jti)
}
