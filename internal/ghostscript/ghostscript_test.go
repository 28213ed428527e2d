package ghostscript

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeGS drops an executable shell script that mimics the gs CLI.
func writeFakeGS(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake gs scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "gs")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// copyingGS copies the input file to the -sOutputFile= destination.
const copyingGS = `#!/bin/sh
out=""
in=""
for a in "$@"; do
  case "$a" in
    -sOutputFile=*) out="${a#-sOutputFile=}" ;;
    -*) ;;
    *) in="$a" ;;
  esac
done
cp "$in" "$out"
`

const failingGS = `#!/bin/sh
echo "Unrecoverable error" >&2
exit 1
`

const hangingGS = `#!/bin/sh
sleep 60
`

func TestParseQuality(t *testing.T) {
	for _, valid := range []string{"ebook", "printer", "prepress"} {
		q, err := ParseQuality(valid)
		require.NoError(t, err)
		assert.Equal(t, Quality(valid), q)
	}

	_, err := ParseQuality("screen")
	assert.Error(t, err)
	_, err = ParseQuality("")
	assert.Error(t, err)
}

func TestLocate_Explicit(t *testing.T) {
	bin := writeFakeGS(t, copyingGS)

	path, err := Locate(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, path)
}

func TestLocate_ExplicitMissing(t *testing.T) {
	_, err := Locate(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocate_PathLookup(t *testing.T) {
	bin := writeFakeGS(t, copyingGS)
	t.Setenv("PATH", filepath.Dir(bin))

	path, err := Locate("")
	require.NoError(t, err)
	assert.Equal(t, bin, path)
}

func TestLocate_NotOnPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := Locate("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs("/tmp/out.pdf", "/tmp/in.pdf", QualityPrinter)

	assert.Equal(t, []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/printer",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=/tmp/out.pdf",
		"/tmp/in.pdf",
	}, args)
}

func TestCompress_Success(t *testing.T) {
	bin := writeFakeGS(t, copyingGS)
	c := NewCompressor(bin, 10*time.Second, clockwork.NewRealClock())

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(in, []byte("%PDF-1.4 fake"), 0o644))

	require.NoError(t, c.Compress(context.Background(), in, out, QualityEbook))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestCompress_Failure(t *testing.T) {
	bin := writeFakeGS(t, failingGS)
	c := NewCompressor(bin, 10*time.Second, clockwork.NewRealClock())

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	err := c.Compress(context.Background(), in, filepath.Join(dir, "out.pdf"), QualityEbook)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unrecoverable error")
}

func TestCompress_Timeout(t *testing.T) {
	bin := writeFakeGS(t, hangingGS)
	c := NewCompressor(bin, 100*time.Millisecond, clockwork.NewRealClock())

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	err := c.Compress(context.Background(), in, filepath.Join(dir, "out.pdf"), QualityEbook)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompress_NoBinary(t *testing.T) {
	c := NewCompressor("", time.Second, clockwork.NewRealClock())
	assert.False(t, c.Available())

	err := c.Compress(context.Background(), "in.pdf", "out.pdf", QualityEbook)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCompress_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	bin := writeFakeGS(t, failingGS)
	c := NewCompressor(bin, 10*time.Second, clockwork.NewRealClock())

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	// Drive enough failures to trip the 60%-of-5 threshold.
	for i := 0; i < 6; i++ {
		_ = c.Compress(context.Background(), in, filepath.Join(dir, "out.pdf"), QualityEbook)
	}

	err := c.Compress(context.Background(), in, filepath.Join(dir, "out.pdf"), QualityEbook)
	assert.ErrorIs(t, err, ErrUnavailable)
}
