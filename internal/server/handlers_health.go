package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/pdfpress/internal/version"
	goredis "github.com/redis/go-redis/v9"
)

// redisHealthChecker is a minimal interface for Redis health checks
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

// postgresHealthChecker is a minimal interface for PostgreSQL health checks
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleReadiness checks the configured backends. Ghostscript availability is
// reported but never fails readiness: the service degrades to uncompressed
// output without it.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	type check struct {
		name string
		fn   func(context.Context) error
	}

	var checks []check
	if redisCheck := s.getRedisHealthChecker(); redisCheck != nil {
		checks = append(checks, check{"redis", func(ctx context.Context) error {
			return redisCheck.Ping(ctx).Err()
		}})
	}
	if pgCheck := s.getPostgresHealthChecker(); pgCheck != nil {
		checks = append(checks, check{"postgres", pgCheck.Ping})
	}

	for _, ch := range checks {
		if err := ch.fn(ctx); err != nil {
			return c.JSON(503, map[string]any{
				"status":       "unhealthy",
				"failed_check": ch.name,
				"error":        err.Error(),
			})
		}
	}

	return c.JSON(200, map[string]any{
		"status":      "ready",
		"ghostscript": s.ghostscriptStatus(),
	})
}

func (s *Server) ghostscriptStatus() string {
	if s.gs != nil && s.gs.Available() {
		return "available"
	}
	return "unavailable"
}

func (s *Server) getRedisHealthChecker() redisHealthChecker {
	if s.redisHealthCheck != nil {
		return s.redisHealthCheck
	}
	if s.redisClient != nil {
		return s.redisClient
	}
	return nil
}

func (s *Server) getPostgresHealthChecker() postgresHealthChecker {
	if s.postgresHealthCheck != nil {
		return s.postgresHealthCheck
	}
	if s.db != nil {
		return s.db
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}
