package revocation

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically purges denylist rows whose token expiry has passed,
// so the table does not grow without bound. Redis keys expire on their own.
type Sweeper struct {
	store    Store
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(store Store, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("revocation sweeper stopping")
			return

		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)

	defer cancel()

	purged, err := s.store.PurgeExpired(cctx, time.Now())

	if err != nil {
		s.log.Error("revocation sweep failed", "err", err)
		return
	}

	if purged > 0 {
		s.log.Info("revocation sweep complete", "purged", purged)
	}
}
