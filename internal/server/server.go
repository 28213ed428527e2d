package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/pdfpress/internal/config"
	"github.com/pscheid92/pdfpress/internal/correlation"
	apperrors "github.com/pscheid92/pdfpress/internal/errors"
	"github.com/pscheid92/pdfpress/internal/limits"
	"github.com/pscheid92/pdfpress/internal/merge"
	goredis "github.com/redis/go-redis/v9"
)

// MergeService is the application layer the handlers delegate to.
type MergeService interface {
	Merge(ctx context.Context, req merge.Request) (*merge.Result, error)
}

// JobLister serves the job history endpoint (nil if the audit store is not configured).
type JobLister interface {
	ListRecent(ctx context.Context, limit int) ([]merge.Record, error)
}

// GhostscriptStatus reports whether the gs binary was located at startup.
type GhostscriptStatus interface {
	Available() bool
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	merger      MergeService
	gs          GhostscriptStatus
	rateLimiter limits.RateLimiter
	concurrency *limits.ConcurrencyLimiter
	jobs        JobLister
	redisClient *goredis.Client
	db          *pgxpool.Pool
	startTime   time.Time

	// test overrides for readiness checks
	redisHealthCheck    redisHealthChecker
	postgresHealthCheck postgresHealthChecker
}

// NewServer wires the HTTP layer. rateLimiter, jobs, redisClient, and db may
// be nil when the corresponding backend is not configured.
func NewServer(cfg *config.Config, merger MergeService, gs GhostscriptStatus, rateLimiter limits.RateLimiter, jobs JobLister, redisClient *goredis.Client, db *pgxpool.Pool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware. The error middleware sits outside the body limit so an
	// oversized upload still gets the structured envelope.
	e.Use(correlation.Middleware())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10)))

	srv := &Server{
		echo:        e,
		config:      cfg,
		merger:      merger,
		gs:          gs,
		rateLimiter: rateLimiter,
		concurrency: limits.NewConcurrencyLimiter(cfg.MaxConcurrentMerges),
		jobs:        jobs,
		redisClient: redisClient,
		db:          db,
		startTime:   time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
