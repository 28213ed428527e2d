package server

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/pdfpress/internal/errors"
)

const recentJobsLimit = 20

type jobResponse struct {
	ID              string    `json:"id"`
	FileCount       int       `json:"file_count"`
	InputBytes      int64     `json:"input_bytes"`
	OutputBytes     int64     `json:"output_bytes"`
	Compression     string    `json:"compression"`
	Quality         string    `json:"quality,omitempty"`
	GhostscriptUsed bool      `json:"ghostscript_used"`
	DurationMillis  int64     `json:"duration_ms"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Server) handleRecentJobs(c echo.Context) error {
	if s.jobs == nil {
		return apperrors.NotFoundError("job history is not configured")
	}

	records, err := s.jobs.ListRecent(c.Request().Context(), recentJobsLimit)
	if err != nil {
		return apperrors.InternalError("failed to list jobs", err)
	}

	jobs := make([]jobResponse, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, jobResponse{
			ID:              rec.ID.String(),
			FileCount:       rec.FileCount,
			InputBytes:      rec.InputBytes,
			OutputBytes:     rec.OutputBytes,
			Compression:     rec.Compression,
			Quality:         rec.Quality,
			GhostscriptUsed: rec.GhostscriptUsed,
			DurationMillis:  rec.DurationMillis,
			Status:          rec.Status,
			Error:           rec.Error,
			CreatedAt:       rec.CreatedAt,
		})
	}

	if err := c.JSON(200, map[string]any{"jobs": jobs}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
