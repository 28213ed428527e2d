package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pdfpress/internal/config"
	"github.com/pscheid92/pdfpress/internal/database"
	"github.com/pscheid92/pdfpress/internal/ghostscript"
	"github.com/pscheid92/pdfpress/internal/limits"
	"github.com/pscheid92/pdfpress/internal/logging"
	"github.com/pscheid92/pdfpress/internal/merge"
	"github.com/pscheid92/pdfpress/internal/pdf"
	"github.com/pscheid92/pdfpress/internal/redis"
	"github.com/pscheid92/pdfpress/internal/server"
	"github.com/pscheid92/pdfpress/internal/version"
	goredis "github.com/redis/go-redis/v9"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupGhostscript(cfg *config.Config, clock clockwork.Clock) *ghostscript.Compressor {
	bin, err := ghostscript.Locate(cfg.GhostscriptPath)
	if err != nil {
		slog.Warn("Ghostscript not found, compression falls back to uncompressed output", "error", err)
		return ghostscript.NewCompressor("", cfg.GhostscriptTimeout, clock)
	}
	slog.Info("Ghostscript located", "path", bin)
	return ghostscript.NewCompressor(bin, cfg.GhostscriptTimeout, clock)
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, draining connections...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting",
		"env", cfg.AppEnv,
		"port", cfg.Port,
		"version", version.Get().Version,
	)

	// Postgres audit store is optional; without it merges are not recorded.
	var (
		pool     *pgxpool.Pool
		recorder merge.Recorder = merge.NoopRecorder{}
		jobs     server.JobLister
	)
	if cfg.DatabaseURL != "" {
		pool = setupDB(cfg)
		defer pool.Close()

		repo := database.NewJobRepo(pool)
		recorder = database.NewJobRecorder(repo)
		jobs = repo
	}

	// Redis is optional; without it rate limiting is instance-local.
	var (
		redisClient *goredis.Client
		rateLimiter limits.RateLimiter
	)
	if cfg.RedisURL != "" {
		redisClient = setupRedis(context.Background(), cfg)
		defer func() { _ = redisClient.Close() }()
		rateLimiter = redis.NewMergeRateLimiter(redisClient, clock, cfg.RateLimitPerMinute)
	} else {
		rateLimiter = limits.NewLocalRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	}

	gs := setupGhostscript(cfg, clock)

	mergeSvc := merge.NewService(pdf.NewEngine(), gs, recorder, clock)

	srv := server.NewServer(cfg, mergeSvc, gs, rateLimiter, jobs, redisClient, pool)

	done := runGracefulShutdown(srv)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
