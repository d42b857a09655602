package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/Kevin42127/TinyLink/internal/repository"
)

// Sweeper purges expired records. It shares no locks with allocation or
// resolution; a resolve racing a sweep sees either the record or NotFound.
type Sweeper struct {
	store    repository.Store
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(store repository.Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Sweep deletes every record whose expiry is set and not after now.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.store.DeleteExpiredBefore(ctx, now.UTC())
	if err != nil {
		return 0, storeError("sweep", err)
	}

	if removed > 0 {
		logger.FromContext(ctx).Info("Swept expired short urls",
			slog.Int64("removed", removed),
			slog.Time("cutoff", now.UTC()),
		)
	}

	return removed, nil
}

func (s *Sweeper) SweepNow(ctx context.Context) (int64, error) {
	return s.Sweep(ctx, s.now())
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("sweeper interval must be positive")
	}

	log := logger.FromContext(ctx)
	log.Info("Sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepNow(ctx); err != nil && ctx.Err() == nil {
			log.Error("Sweep failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			log.Info("Sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}
