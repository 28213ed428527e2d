package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Merge endpoint; /merge-pdfs is the route the first deployment exposed
	// and is kept for existing clients.
	s.echo.POST("/merge", s.handleMerge, s.rateLimitMiddleware, s.concurrencyMiddleware)
	s.echo.POST("/merge-pdfs", s.handleMerge, s.rateLimitMiddleware, s.concurrencyMiddleware)

	// Job history (404 unless the audit store is configured)
	s.echo.GET("/jobs/recent", s.handleRecentJobs)
}
