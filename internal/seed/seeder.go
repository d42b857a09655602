// Package seed fills a record store with synthetic links for load testing.
//
// Links come in three tiers: a few hot links created in the last minutes,
// warm links spread over hours and a large cold tail spread over seconds
// further back. Codes are tier prefixed (h, w, c) so they never collide.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/Kevin42127/TinyLink/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHotCount  = 100
	DefaultWarmCount = 10000
	DefaultColdCount = 1000000

	DefaultWorkers   = 4
	DefaultBatchSize = 5000

	maxTierCount = 9999999
)

type Counts struct {
	Hot  int
	Warm int
	Cold int
}

func (c Counts) Total() int {
	return c.Hot + c.Warm + c.Cold
}

func (c Counts) validate() error {
	for _, n := range []int{c.Hot, c.Warm, c.Cold} {
		if n < 0 || n > maxTierCount {
			return fmt.Errorf("tier count %d out of range 0..%d", n, maxTierCount)
		}
	}
	return nil
}

type Seeder struct {
	store     repository.Store
	workers   int
	batchSize int
	now       func() time.Time
}

func NewSeeder(store repository.Store, workers, batchSize int) *Seeder {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Seeder{
		store:     store,
		workers:   workers,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run clears the store when reset is set, inserts every tier and returns the
// final record count. Cold links are inserted by parallel workers.
func (s *Seeder) Run(ctx context.Context, counts Counts, reset bool) (int64, error) {
	if err := counts.validate(); err != nil {
		return 0, err
	}

	log := logger.FromContext(ctx)
	now := s.now().UTC()

	if reset {
		removed, err := s.store.DeleteAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to clear store: %w", err)
		}
		log.Info("Store cleared", slog.Int64("removed", removed))
	}

	hot := tier{prefix: "h", width: 6, target: "https://youtube.com/watch?v=%06d", step: time.Minute}
	if err := s.insertRange(ctx, hot, now, 1, counts.Hot); err != nil {
		return 0, fmt.Errorf("failed to insert hot links: %w", err)
	}
	log.Info("Hot links inserted", slog.Int("count", counts.Hot))

	warm := tier{prefix: "w", width: 6, target: "https://github.com/repo/%06d", step: time.Hour}
	if err := s.insertRange(ctx, warm, now, 1, counts.Warm); err != nil {
		return 0, fmt.Errorf("failed to insert warm links: %w", err)
	}
	log.Info("Warm links inserted", slog.Int("count", counts.Warm))

	cold := tier{prefix: "c", width: 7, target: "https://example.com/page/%07d", step: time.Second}
	if err := s.insertParallel(ctx, cold, now, counts.Cold); err != nil {
		return 0, fmt.Errorf("failed to insert cold links: %w", err)
	}
	log.Info("Cold links inserted", slog.Int("count", counts.Cold), slog.Int("workers", s.workers))

	return s.store.Count(ctx)
}

type tier struct {
	prefix string
	width  int
	target string
	step   time.Duration
}

func (t tier) code(i int) string {
	return fmt.Sprintf("%s%0*d", t.prefix, t.width, i)
}

// insertParallel splits [1, count] into contiguous ranges, one per worker.
func (s *Seeder) insertParallel(ctx context.Context, t tier, now time.Time, count int) error {
	if count == 0 {
		return nil
	}

	perWorker := count / s.workers
	if perWorker == 0 {
		perWorker = count
	}

	g, gctx := errgroup.WithContext(ctx)
	worker := 0
	for start := 1; start <= count; start += perWorker {
		end := start + perWorker - 1
		if end > count || count-end < perWorker {
			end = count
		}

		wctx := logger.WithAttrs(gctx, slog.Int("worker", worker))
		worker++
		start := start
		g.Go(func() error {
			return s.insertRange(wctx, t, now, start, end)
		})

		if end == count {
			break
		}
	}

	return g.Wait()
}

func (s *Seeder) insertRange(ctx context.Context, t tier, now time.Time, start, end int) error {
	log := logger.FromContext(ctx)

	for i := start; i <= end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		url := &domain.ShortURL{
			ShortCode:   t.code(i),
			OriginalURL: fmt.Sprintf(t.target, i),
			CreatedAt:   now.Add(-time.Duration(i) * t.step),
		}
		if err := s.store.Insert(ctx, url); err != nil {
			// rerunning without reset keeps existing rows
			if errors.Is(err, domain.ErrDuplicateKey) {
				continue
			}
			return err
		}

		if done := i - start + 1; done%s.batchSize == 0 {
			log.Debug("Seed progress", slog.String("tier", t.prefix), slog.Int("inserted", done))
		}
	}

	return nil
}
