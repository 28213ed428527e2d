package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/pdfpress/internal/config"
	apperrors "github.com/pscheid92/pdfpress/internal/errors"
	"github.com/pscheid92/pdfpress/internal/limits"
	"github.com/pscheid92/pdfpress/internal/merge"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockMergeService struct {
	mergeFn func(ctx context.Context, req merge.Request) (*merge.Result, error)
}

func (m *mockMergeService) Merge(ctx context.Context, req merge.Request) (*merge.Result, error) {
	if m.mergeFn != nil {
		return m.mergeFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockJobLister struct {
	listRecentFn func(ctx context.Context, limit int) ([]merge.Record, error)
}

func (m *mockJobLister) ListRecent(ctx context.Context, limit int) ([]merge.Record, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

type mockGhostscriptStatus struct {
	available bool
}

func (m *mockGhostscriptStatus) Available() bool { return m.available }

type mockRateLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (m *mockRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, key)
	}
	return true, nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, merger MergeService, opts ...func(*Server)) *Server {
	t.Helper()

	cfg := &config.Config{
		Port:                "8000",
		MaxFiles:            10,
		MaxUploadBytes:      10 << 20,
		MaxConcurrentMerges: 8,
		WorkDir:             t.TempDir(),
	}

	e := echo.New()
	// Install error and body-limit middleware for tests to match production
	// behavior, in the production order.
	e.Use(apperrors.Middleware())
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10)))

	srv := &Server{
		echo:        e,
		config:      cfg,
		merger:      merger,
		gs:          &mockGhostscriptStatus{},
		concurrency: limits.NewConcurrencyLimiter(cfg.MaxConcurrentMerges),
		startTime:   time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withConfig(mutate func(*config.Config)) func(*Server) {
	return func(s *Server) {
		mutate(s.config)
	}
}

func withGhostscript(gs GhostscriptStatus) func(*Server) {
	return func(s *Server) {
		s.gs = gs
	}
}

func withRateLimiter(rl limits.RateLimiter) func(*Server) {
	return func(s *Server) {
		s.rateLimiter = rl
	}
}

func withConcurrencyLimit(max int64) func(*Server) {
	return func(s *Server) {
		s.concurrency = limits.NewConcurrencyLimiter(max)
	}
}

func withJobLister(jobs JobLister) func(*Server) {
	return func(s *Server) {
		s.jobs = jobs
	}
}

func withRedisHealthCheck(redis redisHealthChecker) func(*Server) {
	return func(s *Server) {
		s.redisHealthCheck = redis
	}
}

func withPostgresHealthCheck(pg postgresHealthChecker) func(*Server) {
	return func(s *Server) {
		s.postgresHealthCheck = pg
	}
}

// mergeUpload is a single uploaded file in a test multipart request.
type mergeUpload struct {
	filename string
	content  string
}

// newMergeRequest builds a multipart/form-data POST to /merge.
func newMergeRequest(t *testing.T, uploads []mergeUpload, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, u := range uploads {
		part, err := w.CreateFormFile("files", u.filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, u.content)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/merge", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

// fakeMergeResult writes a small output file into the request workspace and
// returns a result pointing at it, mimicking what the real pipeline produces.
func fakeMergeResult(t *testing.T, req merge.Request, content string) *merge.Result {
	t.Helper()

	out := req.Workspace.OutputPath("merged.pdf")
	require.NoError(t, os.WriteFile(out, []byte(content), 0o600))

	return &merge.Result{
		JobID:       req.Workspace.ID,
		OutputPath:  out,
		InputFiles:  2,
		OutputBytes: int64(len(content)),
		Compression: req.Compression,
	}
}

func serveRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func pdfUploads(names ...string) []mergeUpload {
	uploads := make([]mergeUpload, 0, len(names))
	for _, name := range names {
		uploads = append(uploads, mergeUpload{filename: name, content: "%PDF-1.4 " + filepath.Base(name)})
	}
	return uploads
}
