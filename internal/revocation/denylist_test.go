package revocation

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	revoked map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{revoked: make(map[string]time.Time)}
}

func (f *fakeStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	f.revoked[jti] = expiresAt
	return nil
}

func (f *fakeStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := f.revoked[jti]
	return ok, nil
}

func (f *fakeStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for jti, exp := range f.revoked {
		if !exp.After(now) {
			delete(f.revoked, jti)
			n++
		}
	}
	return n, nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestRevokeThenIsRevoked(t *testing.T) {
	store := newFakeStore()
	// nil redis client: denylist must still work on the durable store alone
	d := NewDenylist(store, nil, testLogger())

	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = d.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := newFakeStore()
	d := NewDenylist(store, nil, testLogger())

	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, d.Revoke(ctx, "jti-1", exp))
	require.NoError(t, d.Revoke(ctx, "jti-1", exp))

	assert.Len(t, store.revoked, 1)
}

func TestRevokeCountsRevocations(t *testing.T) {
	store := newFakeStore()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "tokens_revoked_total"})
	d := NewDenylist(store, nil, testLogger()).WithRevokedCounter(c)

	require.NoError(t, d.Revoke(context.Background(), "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, d.Revoke(context.Background(), "jti-2", time.Now().Add(time.Hour)))

	assert.Equal(t, float64(2), testutil.ToFloat64(c))
}

func TestSweeperPurgesOnlyExpiredRows(t *testing.T) {
	store := newFakeStore()

	require.NoError(t, store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	require.NoError(t, store.Revoke(context.Background(), "live", time.Now().Add(time.Hour)))

	s := NewSweeper(store, time.Minute, testLogger())
	s.sweep(context.Background())

	assert.NotContains(t, store.revoked, "old")
	assert.Contains(t, store.revoked, "live")
}
