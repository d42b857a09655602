package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kevin42127/TinyLink/internal/bootstrap"
	"github.com/Kevin42127/TinyLink/internal/config"
	"github.com/Kevin42127/TinyLink/internal/events"
	"github.com/Kevin42127/TinyLink/internal/handler"
	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/Kevin42127/TinyLink/internal/repository"
	redisRepo "github.com/Kevin42127/TinyLink/internal/repository/redis"
	"github.com/Kevin42127/TinyLink/internal/service"
	"github.com/Kevin42127/TinyLink/pkg/generator"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	loggerConfig := logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.OutputPath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}

	if err := logger.Initialize(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.Get()
	log.Info("Starting TinyLink service",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"log_level", cfg.Log.Level,
	)

	if err := run(cfg, log); err != nil {
		log.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}

	log.Info("Graceful shutdown completed")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]handler.CheckFunc)

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to setup store: %w", err)
	}
	defer closeStore()

	if pinger, ok := store.(repository.Pinger); ok {
		checks["store"] = pinger.Ping
	}

	if cfg.Redis.Enabled {
		redisClient, err := setupRedis(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to setup redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", "error", err)
			}
		}()

		store = redisRepo.NewURLCache(store, redisClient, cfg.Redis.CacheTTL)
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		log.Info("Redis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	gen, err := generator.New(cfg.Shortener.CodeLength)
	if err != nil {
		return err
	}

	shortenerService := service.NewShortenerService(store, gen, cfg.Shortener.Denylist)
	sweeper := service.NewSweeper(store, cfg.Sweeper.Interval)

	if cfg.NATS.URL != "" {
		conn, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer conn.Close()

		trigger := events.NewSweepTrigger(conn, sweeper, cfg.NATS.SweepSubject, cfg.NATS.QueueGroup)
		if err := trigger.Start(); err != nil {
			return err
		}
		defer func() {
			if err := trigger.Stop(); err != nil {
				log.Error("Error stopping sweep trigger", "error", err)
			}
		}()

		checks["nats"] = func(ctx context.Context) error {
			if !conn.IsConnected() {
				return errors.New("nats not connected")
			}
			return nil
		}
		log.Info("Listening for sweep requests", "subject", cfg.NATS.SweepSubject, "queue", cfg.NATS.QueueGroup)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.Handlers{
		Shortener: handler.NewShortenerHandler(shortenerService, cfg.Server.BaseURL, cfg.Shortener.BatchMaxItems),
		Admin:     handler.NewAdminHandler(shortenerService, sweeper, cfg.Shortener.HistoryDefaultLimit, cfg.Shortener.HistoryMaxLimit),
		Health:    handler.NewHealthHandler(version, checks),
	}, cfg.Server.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if cfg.Sweeper.Enabled {
		g.Go(func() error {
			return sweeper.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func setupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return redisClient, nil
}
