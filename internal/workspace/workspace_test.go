package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesSubdirectories(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(w.Root(), "input"))
	assert.DirExists(t, filepath.Join(w.Root(), "output"))
	assert.True(t, strings.HasPrefix(filepath.Base(w.Root()), "pdfpress-"))
}

func TestNew_DefaultsToTempDir(t *testing.T) {
	w, err := New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Cleanup() })

	assert.True(t, strings.HasPrefix(w.Root(), os.TempDir()))
}

func TestSaveUpload(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	n, err := w.SaveUpload("report.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	data, err := os.ReadFile(filepath.Join(w.Root(), "input", "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestSaveUpload_FlattensPath(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = w.SaveUpload("../../etc/evil.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	// The file must land inside input/, not outside the workspace.
	assert.FileExists(t, filepath.Join(w.Root(), "input", "evil.pdf"))
}

func TestSaveUpload_RejectsEmptyName(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = w.SaveUpload("", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadFilename)
}

func TestInputPDFs_SortedAndFiltered(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"zebra.pdf", "Alpha.PDF", "middle.pdf", "notes.txt"} {
		_, err := w.SaveUpload(name, strings.NewReader("x"))
		require.NoError(t, err)
	}

	paths, err := w.InputPDFs()
	require.NoError(t, err)
	require.Len(t, paths, 3)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"Alpha.PDF", "middle.pdf", "zebra.pdf"}, names)
}

func TestInputPDFs_Empty(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	paths, err := w.InputPDFs()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestCleanup(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = w.SaveUpload("a.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, w.Cleanup())
	assert.NoDirExists(t, w.Root())
}

func TestOutputPath(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(w.Root(), "output", "merged.pdf"), w.OutputPath("merged.pdf"))
}
