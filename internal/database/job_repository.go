package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/pdfpress/internal/merge"
	"github.com/pscheid92/pdfpress/internal/metrics"
)

// JobRepo persists merge job audit records.
type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Insert writes one job record.
func (r *JobRepo) Insert(ctx context.Context, rec merge.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO merge_jobs (id, file_count, input_bytes, output_bytes, compression, quality, ghostscript_used, duration_ms, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.ID, rec.FileCount, rec.InputBytes, rec.OutputBytes, rec.Compression, rec.Quality,
		rec.GhostscriptUsed, rec.DurationMillis, rec.Status, rec.Error, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert merge job: %w", err)
	}
	return nil
}

// ListRecent returns the most recent job records, newest first.
func (r *JobRepo) ListRecent(ctx context.Context, limit int) ([]merge.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, file_count, input_bytes, output_bytes, compression, quality, ghostscript_used, duration_ms, status, error, created_at
		FROM merge_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query merge jobs: %w", err)
	}
	defer rows.Close()

	var records []merge.Record
	for rows.Next() {
		var rec merge.Record
		if err := rows.Scan(&rec.ID, &rec.FileCount, &rec.InputBytes, &rec.OutputBytes,
			&rec.Compression, &rec.Quality, &rec.GhostscriptUsed, &rec.DurationMillis,
			&rec.Status, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan merge job: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read merge jobs: %w", err)
	}

	return records, nil
}

// JobRecorder adapts JobRepo to the merge.Recorder interface. Writes are
// detached from the request context and retried briefly; audit persistence
// must never fail a merge request.
type JobRecorder struct {
	repo *JobRepo
}

func NewJobRecorder(repo *JobRepo) *JobRecorder {
	return &JobRecorder{repo: repo}
}

// recordPolicy retries transient insert failures; context errors abort
// immediately because the detached write context has its own deadline.
var recordPolicy = retrypolicy.Builder[any]().
	WithMaxRetries(2).
	WithBackoff(100*time.Millisecond, time.Second).
	AbortOnErrors(context.Canceled, context.DeadlineExceeded).
	Build()

func (j *JobRecorder) Record(ctx context.Context, rec merge.Record) {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := failsafe.NewExecutor[any](recordPolicy).WithContext(recordCtx).Run(func() error {
		return j.repo.Insert(recordCtx, rec)
	})
	if err != nil {
		metrics.JobRecordFailures.Inc()
		slog.ErrorContext(ctx, "Failed to persist merge job record", "job_id", rec.ID.String(), "error", err)
	}
}
