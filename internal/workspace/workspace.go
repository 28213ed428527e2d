// Package workspace manages the per-request scratch directories the merge
// pipeline works in. Each workspace holds an input/ directory for uploads and
// an output/ directory for intermediate and final artifacts, and is removed
// once the response has been written.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const dirPrefix = "pdfpress-"

// ErrBadFilename is returned for upload names that are empty or escape the
// input directory.
var ErrBadFilename = errors.New("invalid upload filename")

// Workspace is a scratch directory for a single merge request.
type Workspace struct {
	ID        uuid.UUID
	root      string
	inputDir  string
	outputDir string
}

// New creates a workspace under parent. An empty parent means os.TempDir().
func New(parent string) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}

	id := uuid.New()
	root := filepath.Join(parent, dirPrefix+id.String())
	w := &Workspace{
		ID:        id,
		root:      root,
		inputDir:  filepath.Join(root, "input"),
		outputDir: filepath.Join(root, "output"),
	}

	for _, dir := range []string{w.inputDir, w.outputDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create workspace dir %s: %w", dir, err)
		}
	}

	return w, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.root }

// SaveUpload writes an uploaded file into input/, returning the number of
// bytes written. The name is flattened to its base to keep uploads from
// escaping the workspace.
func (w *Workspace) SaveUpload(name string, r io.Reader) (int64, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == ".." || base == "/" {
		return 0, fmt.Errorf("%w: %q", ErrBadFilename, name)
	}

	f, err := os.Create(filepath.Join(w.inputDir, base))
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("failed to write upload %s: %w", base, err)
	}
	return n, nil
}

// InputPDFs lists the .pdf files in input/, sorted alphabetically by
// filename. Merge order is this sorted order, not upload order.
func (w *Workspace) InputPDFs() ([]string, error) {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(w.inputDir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// OutputPath returns the path for an artifact in output/.
func (w *Workspace) OutputPath(name string) string {
	return filepath.Join(w.outputDir, name)
}

// Cleanup removes the entire workspace.
func (w *Workspace) Cleanup() error {
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.root, err)
	}
	return nil
}
