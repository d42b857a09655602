package main

import (
	"context"
	"log"

	"github.com/Kevin42127/TinyLink/internal/bootstrap"
	"github.com/Kevin42127/TinyLink/internal/config"
	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/Kevin42127/TinyLink/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: "text"}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()

	ctx := context.Background()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, l)
	if err != nil {
		log.Fatalf("Unable to open store: %v\n", err)
	}
	defer closeStore()

	counts := seed.Counts{
		Hot:  seed.DefaultHotCount,
		Warm: seed.DefaultWarmCount,
		Cold: seed.DefaultColdCount,
	}

	total, err := seed.NewSeeder(store, seed.DefaultWorkers, seed.DefaultBatchSize).Run(ctx, counts, true)
	if err != nil {
		log.Fatalf("Failed to seed store: %v\n", err)
	}

	if total != int64(counts.Total()) {
		l.Warn("Unexpected record count", "expected", counts.Total(), "actual", total)
	}
	l.Info("Seeding completed", "records", total)
}
