// Package bootstrap opens the record store selected by configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kevin42127/TinyLink/internal/config"
	"github.com/Kevin42127/TinyLink/internal/migrations"
	"github.com/Kevin42127/TinyLink/internal/repository"
	"github.com/Kevin42127/TinyLink/internal/repository/memory"
	"github.com/Kevin42127/TinyLink/internal/repository/postgres"
	"github.com/Kevin42127/TinyLink/internal/repository/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenStore returns the configured record store and a func releasing it.
// Schema migrations are applied before the store is returned.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using sqlite store", "path", cfg.Store.SQLitePath)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing sqlite", "error", err)
			}
		}, nil

	case config.DriverPostgres:
		pool, err := OpenPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using postgres store", "host", cfg.Database.Host, "database", cfg.Database.Name)
		return postgres.NewURLRepository(pool), func() {
			pool.Close()
			log.Info("Database connection closed")
		}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory store, links are lost on restart")
		return memory.NewURLRepository(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OpenPostgres migrates the database and returns a connected pool.
func OpenPostgres(ctx context.Context, dbConfig config.DatabaseConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	migrator, err := migrations.NewPostgres(dbConfig.URL, log)
	if err != nil {
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		migrator.Close()
		return nil, err
	}
	if err := migrator.Close(); err != nil {
		log.Warn("Error closing migrator", "error", err)
	}

	poolConfig, err := pgxpool.ParseConfig(dbConfig.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = dbConfig.MaxConns
	poolConfig.MinConns = dbConfig.MinConns
	poolConfig.MaxConnLifetime = dbConfig.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbConfig.MaxConnIdleTime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	return dbPool, nil
}
