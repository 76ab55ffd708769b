package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/fieldgame/internal/config"
	"github.com/playperu/fieldgame/internal/database"
	"github.com/playperu/fieldgame/internal/handler/health"
	"github.com/playperu/fieldgame/internal/migrations"
	"github.com/playperu/fieldgame/internal/notify"
	"github.com/playperu/fieldgame/internal/photos"
	"github.com/playperu/fieldgame/internal/server"
	"github.com/playperu/fieldgame/internal/store"
	"github.com/playperu/fieldgame/internal/submission"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "driver", cfg.DBDriver, "path", cfg.DBPath)

	st := store.New(db)
	if err := st.EnsureOptionSettings(ctx); err != nil {
		return fmt.Errorf("seeding option settings: %w", err)
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := st.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
	}

	ph, err := photos.New(cfg.PhotoDir)
	if err != nil {
		return fmt.Errorf("opening photo store: %w", err)
	}

	// --- Notifications ---
	broker := notify.NewBroker()
	var notifier notify.Notifier = broker
	optional := map[string]health.Checker{}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		notifier = notify.NewRedisPublisher(rdb)
		optional["redis"] = notify.NewRedisChecker(rdb)
		logger.Info("connected to redis")
	}

	// --- HTTP Server ---
	deps := server.Deps{
		Store:          st,
		Service:        submission.NewService(st, ph, notifier, logger, submission.Options{EnforceQueue: cfg.QueueEnforce}),
		Photos:         ph,
		Broker:         broker,
		Tokens:         server.NewTokens(cfg.JWTSecret, cfg.PlayerTokenTTL),
		Notifier:       notifier,
		SPADir:         cfg.SPADir,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	}
	srv := server.New(cfg.HTTPAddr, logger, deps, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
			"sqlite": dbChecker(db),
		}, optional).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	if rdb != nil {
		g.Go(func() error {
			return notify.Relay(gctx, rdb, broker)
		})
	}

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func dbChecker(db *sql.DB) health.CheckerFunc {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
