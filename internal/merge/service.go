package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pdfpress/internal/ghostscript"
	"github.com/pscheid92/pdfpress/internal/metrics"
	"github.com/pscheid92/pdfpress/internal/workspace"
)

// ErrNoInput is returned when a request contains no usable PDF files.
var ErrNoInput = errors.New("no valid PDF files in request")

// ErrInvalidInput is returned when an uploaded file is not a readable PDF.
var ErrInvalidInput = errors.New("invalid PDF input")

// Service runs the merge pipeline: concatenate, optionally compress
// (in-process or via Ghostscript), encrypt last, record the job.
type Service struct {
	engine   Engine
	gs       Compressor
	recorder Recorder
	clock    clockwork.Clock
}

// NewService creates the merge service. recorder may be nil, in which case
// audit records are discarded.
func NewService(engine Engine, gs Compressor, recorder Recorder, clock clockwork.Clock) *Service {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Service{
		engine:   engine,
		gs:       gs,
		recorder: recorder,
		clock:    clock,
	}
}

// Request describes one merge invocation. The workspace already contains the
// validated uploads in its input directory.
type Request struct {
	Workspace   *workspace.Workspace
	Compression Compression
	Quality     ghostscript.Quality
	Password    string
}

// Merge executes the pipeline and returns the location of the final PDF
// inside the request workspace. The caller owns workspace cleanup.
func (s *Service) Merge(ctx context.Context, req Request) (*Result, error) {
	start := s.clock.Now()
	metrics.ActiveMerges.Inc()
	defer metrics.ActiveMerges.Dec()

	result, err := s.run(ctx, req)
	elapsed := s.clock.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.MergeRequestsTotal.WithLabelValues(string(req.Compression), status).Inc()
	metrics.MergeDuration.WithLabelValues(string(req.Compression)).Observe(elapsed.Seconds())

	rec := Record{
		ID:          req.Workspace.ID,
		Compression: string(req.Compression),
		Quality:     string(req.Quality),
		Status:      status,
		CreatedAt:   s.clock.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	} else {
		result.Duration = elapsed
		rec.FileCount = result.InputFiles
		rec.InputBytes = result.InputBytes
		rec.OutputBytes = result.OutputBytes
		rec.GhostscriptUsed = result.GhostscriptUsed
		rec.DurationMillis = elapsed.Milliseconds()
	}
	s.recorder.Record(ctx, rec)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, req Request) (*Result, error) {
	ws := req.Workspace

	inputs, err := ws.InputPDFs()
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	// Reject corrupt uploads before merging so the client gets a clear
	// validation failure instead of a mid-pipeline error.
	for _, path := range inputs {
		if err := s.engine.Validate(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, filepath.Base(path), err)
		}
	}

	var inputBytes int64
	for _, path := range inputs {
		if info, err := os.Stat(path); err == nil {
			inputBytes += info.Size()
		}
	}
	metrics.MergeInputFiles.Observe(float64(len(inputs)))
	metrics.MergeUploadBytes.Observe(float64(inputBytes))

	merged := ws.OutputPath("merged.pdf")
	if err := s.engine.Merge(inputs, merged); err != nil {
		return nil, err
	}

	if req.Compression == CompressionBuiltin {
		optimized := ws.OutputPath("merged.opt.pdf")
		if err := s.engine.Optimize(merged, optimized); err != nil {
			return nil, err
		}
		if err := os.Rename(optimized, merged); err != nil {
			return nil, err
		}
	}

	gsUsed := false
	if req.Compression == CompressionGhostscript {
		gsUsed = s.compressWithGhostscript(ctx, ws, merged, req.Quality)
	}

	// Encryption is always the last transformation so the password survives
	// whatever rewrite Ghostscript performed.
	if req.Password != "" {
		encrypted := ws.OutputPath("merged.enc.pdf")
		if err := s.engine.Encrypt(merged, encrypted, req.Password); err != nil {
			return nil, err
		}
		if err := os.Rename(encrypted, merged); err != nil {
			return nil, err
		}
	}

	var outputBytes int64
	if info, err := os.Stat(merged); err == nil {
		outputBytes = info.Size()
	}
	metrics.MergeOutputBytes.Observe(float64(outputBytes))

	return &Result{
		JobID:           ws.ID,
		OutputPath:      merged,
		InputFiles:      len(inputs),
		InputBytes:      inputBytes,
		OutputBytes:     outputBytes,
		Compression:     req.Compression,
		Quality:         req.Quality,
		GhostscriptUsed: gsUsed,
	}, nil
}

// compressWithGhostscript recompresses merged in place. Any failure keeps the
// uncompressed document and the request still succeeds; reports whether
// Ghostscript output was used.
func (s *Service) compressWithGhostscript(ctx context.Context, ws *workspace.Workspace, merged string, quality ghostscript.Quality) bool {
	tmp := ws.OutputPath("merged.tmp.pdf")
	if err := os.Rename(merged, tmp); err != nil {
		slog.WarnContext(ctx, "Failed to stage file for Ghostscript, keeping uncompressed output", "error", err)
		metrics.GhostscriptFallbacksTotal.Inc()
		return false
	}

	if err := s.gs.Compress(ctx, tmp, merged, quality); err != nil {
		slog.WarnContext(ctx, "Ghostscript compression failed, falling back to uncompressed output",
			"job_id", ws.ID.String(),
			"quality", quality,
			"error", err,
		)
		metrics.GhostscriptFallbacksTotal.Inc()
		if renameErr := os.Rename(tmp, merged); renameErr != nil {
			slog.ErrorContext(ctx, "Failed to restore uncompressed output", "error", renameErr)
		}
		return false
	}

	_ = os.Remove(tmp)
	return true
}
