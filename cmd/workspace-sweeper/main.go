// Command workspace-sweeper removes orphaned merge workspaces.
//
// Workspaces are normally removed when their request finishes, but a crash or
// SIGKILL mid-merge leaves them behind. This tool scans the work directory for
// workspace directories older than a threshold and deletes them. Meant to run
// from cron or as a Kubernetes CronJob.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// must match the workspace package's directory prefix
const workspacePrefix = "pdfpress-"

func main() {
	var (
		dir     = flag.String("dir", os.Getenv("WORK_DIR"), "Work directory to sweep (or set WORK_DIR env; empty means the system temp dir)")
		maxAge  = flag.Duration("max-age", time.Hour, "Remove workspaces older than this")
		dryRun  = flag.Bool("dry-run", false, "Dry run mode (don't delete anything)")
		verbose = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *dir == "" {
		*dir = os.TempDir()
	}

	// Configure logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	if err := sweep(*dir, *maxAge, *dryRun); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
}

func sweep(dir string, maxAge time.Duration, dryRun bool) error {
	start := time.Now()
	cutoff := start.Add(-maxAge)
	var scanned, removed, skipped int

	slog.Info("Starting sweep", "dir", dir, "max_age", maxAge, "dry_run", dryRun)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read work dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		scanned++

		info, err := entry.Info()
		if err != nil {
			// Already gone; an active request may have cleaned it up.
			slog.Debug("Failed to stat workspace, skipping", "name", entry.Name(), "error", err)
			skipped++
			continue
		}

		if info.ModTime().After(cutoff) {
			slog.Debug("Skipping recent workspace", "name", entry.Name(), "age", start.Sub(info.ModTime()))
			skipped++
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !dryRun {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}

		slog.Debug("Removed orphaned workspace",
			"path", path,
			"age", start.Sub(info.ModTime()).Round(time.Second))
		removed++
	}

	slog.Info("Sweep summary",
		"scanned", scanned,
		"removed", removed,
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}
