package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/pdfpress/internal/errors"
	"github.com/pscheid92/pdfpress/internal/metrics"
)

// rateLimitMiddleware enforces the per-IP merge budget. Limiter failures
// (e.g. Redis outage) fail open: merging beats strict accounting.
func (s *Server) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.rateLimiter == nil {
			return next(c)
		}

		ip := c.RealIP()
		allowed, err := s.rateLimiter.Allow(c.Request().Context(), ip)
		if err != nil {
			slog.WarnContext(c.Request().Context(), "Rate limit check failed, allowing request", "ip", ip, "error", err)
			return next(c)
		}
		if !allowed {
			metrics.RateLimitRejectionsTotal.WithLabelValues("rate").Inc()
			return apperrors.RateLimitedError("merge rate limit exceeded").WithField("ip", ip)
		}

		return next(c)
	}
}

// concurrencyMiddleware caps merges in flight on this instance.
func (s *Server) concurrencyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.concurrency.Acquire() {
			metrics.RateLimitRejectionsTotal.WithLabelValues("concurrency").Inc()
			return apperrors.UnavailableError("too many merges in progress, retry later").
				WithField("max_concurrent", s.concurrency.Max())
		}
		defer s.concurrency.Release()

		return next(c)
	}
}
