// Package ghostscript shells out to the Ghostscript CLI to recompress PDFs.
//
// Ghostscript is treated as an unreliable collaborator: every invocation runs
// under a timeout and behind a circuit breaker, and callers are expected to
// fall back to the uncompressed document when compression fails.
package ghostscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pdfpress/internal/metrics"
)

// Quality selects the Ghostscript PDFSETTINGS preset.
type Quality string

const (
	QualityEbook    Quality = "ebook"
	QualityPrinter  Quality = "printer"
	QualityPrepress Quality = "prepress"
)

// ParseQuality validates a quality preset string.
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityEbook, QualityPrinter, QualityPrepress:
		return Quality(s), nil
	}
	return "", fmt.Errorf("invalid quality %q: allowed values are ebook, printer, prepress", s)
}

// ErrNotFound is returned when no Ghostscript binary could be located.
var ErrNotFound = errors.New("ghostscript binary not found")

// ErrUnavailable is returned when the circuit breaker rejects an invocation.
var ErrUnavailable = errors.New("ghostscript temporarily unavailable")

// candidate binary names, checked in order. The win32/win64 console
// executables cover Windows installs.
var binaryNames = []string{"gs", "gswin64c", "gswin32c"}

// Locate finds the Ghostscript binary. An explicit path wins; otherwise the
// well-known names are tried on PATH.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		path, err := exec.LookPath(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrNotFound, explicit, err)
		}
		return path, nil
	}
	for _, name := range binaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Compressor runs Ghostscript to recompress merged PDFs.
type Compressor struct {
	bin     string
	timeout time.Duration
	breaker circuitbreaker.CircuitBreaker[any]
	clock   clockwork.Clock
}

// NewCompressor creates a compressor using the given binary path. An empty
// bin means Ghostscript is absent; Available() reports false and every
// Compress call fails fast.
func NewCompressor(bin string, timeout time.Duration, clock clockwork.Clock) *Compressor {
	return &Compressor{
		bin:     bin,
		timeout: timeout,
		breaker: newBreaker(),
		clock:   clock,
	}
}

// Available reports whether a Ghostscript binary was located at startup.
func (c *Compressor) Available() bool {
	return c.bin != ""
}

// Compress rewrites in to out using the given quality preset.
// Returns ErrUnavailable when the binary is missing or the breaker is open.
func (c *Compressor) Compress(ctx context.Context, in, out string, quality Quality) error {
	if c.bin == "" {
		return fmt.Errorf("%w: no binary configured", ErrUnavailable)
	}
	if !c.breaker.TryAcquirePermit() {
		metrics.GhostscriptInvocationsTotal.WithLabelValues(string(quality), "rejected").Inc()
		return fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := buildArgs(out, in, quality)
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := c.clock.Now()
	err := cmd.Run()
	elapsed := c.clock.Since(start)
	metrics.GhostscriptDuration.Observe(elapsed.Seconds())

	if err != nil {
		c.breaker.RecordError(err)
		metrics.GhostscriptInvocationsTotal.WithLabelValues(string(quality), "error").Inc()
		if ctx.Err() != nil {
			return fmt.Errorf("ghostscript timed out after %s: %w", c.timeout, ctx.Err())
		}
		return fmt.Errorf("ghostscript failed: %w (stderr: %s)", err, stderr.String())
	}

	c.breaker.RecordSuccess()
	metrics.GhostscriptInvocationsTotal.WithLabelValues(string(quality), "success").Inc()
	slog.DebugContext(ctx, "Ghostscript compression finished",
		"quality", quality,
		"duration", elapsed,
	)
	return nil
}

// buildArgs assembles the gs command line. Flag set mirrors what the service
// has always invoked: pdfwrite device, PDF 1.4 output, quiet batch mode.
func buildArgs(out, in string, quality Quality) []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		fmt.Sprintf("-dPDFSETTINGS=/%s", quality),
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		fmt.Sprintf("-sOutputFile=%s", out),
		in,
	}
}
