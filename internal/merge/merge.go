package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/pdfpress/internal/ghostscript"
)

// Compression selects how the merged document is compressed.
type Compression string

const (
	CompressionNone        Compression = "none"
	CompressionBuiltin     Compression = "builtin"
	CompressionGhostscript Compression = "ghostscript"
)

// ParseCompression validates a compression mode string.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressionNone, CompressionBuiltin, CompressionGhostscript:
		return Compression(s), nil
	}
	return "", fmt.Errorf("invalid compress method %q: allowed values are none, builtin, ghostscript", s)
}

// Result describes a completed merge.
type Result struct {
	JobID           uuid.UUID
	OutputPath      string
	InputFiles      int
	InputBytes      int64
	OutputBytes     int64
	Compression     Compression
	Quality         ghostscript.Quality
	GhostscriptUsed bool
	Duration        time.Duration
}

// Record is the audit form of a merge job, persisted when the audit store is
// configured.
type Record struct {
	ID              uuid.UUID `db:"id"`
	FileCount       int       `db:"file_count"`
	InputBytes      int64     `db:"input_bytes"`
	OutputBytes     int64     `db:"output_bytes"`
	Compression     string    `db:"compression"`
	Quality         string    `db:"quality"`
	GhostscriptUsed bool      `db:"ghostscript_used"`
	DurationMillis  int64     `db:"duration_ms"`
	Status          string    `db:"status"`
	Error           string    `db:"error"`
	CreatedAt       time.Time `db:"created_at"`
}

// --- Collaborator interfaces ---

// Engine performs in-process PDF operations (pdfcpu).
type Engine interface {
	Validate(inFile string) error
	Merge(inFiles []string, outFile string) error
	Optimize(inFile, outFile string) error
	Encrypt(inFile, outFile, password string) error
}

// Compressor recompresses a PDF via the Ghostscript CLI.
type Compressor interface {
	Compress(ctx context.Context, in, out string, quality ghostscript.Quality) error
	Available() bool
}

// Recorder persists merge job audit records. Implementations must not block
// the request path on persistent failures.
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// NoopRecorder discards audit records; used when no DATABASE_URL is set.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, Record) {}
