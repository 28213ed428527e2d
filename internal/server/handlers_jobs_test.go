package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/pdfpress/internal/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRecentJobs_NotConfigured(t *testing.T) {
	srv := newTestServer(t, &mockMergeService{})

	req := httptest.NewRequest(http.MethodGet, "/jobs/recent", nil)
	rec := serveRequest(srv, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "job history is not configured")
}

func TestHandleRecentJobs_ReturnsRecords(t *testing.T) {
	jobID := uuid.New()
	var gotLimit int

	srv := newTestServer(t, &mockMergeService{}, withJobLister(&mockJobLister{
		listRecentFn: func(_ context.Context, limit int) ([]merge.Record, error) {
			gotLimit = limit
			return []merge.Record{{
				ID:              jobID,
				FileCount:       3,
				InputBytes:      3000,
				OutputBytes:     1200,
				Compression:     "ghostscript",
				Quality:         "ebook",
				GhostscriptUsed: true,
				DurationMillis:  412,
				Status:          "success",
				CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			}}, nil
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/recent", nil)
	rec := serveRequest(srv, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, recentJobsLimit, gotLimit)
	assert.Contains(t, rec.Body.String(), jobID.String())
	assert.Contains(t, rec.Body.String(), `"ghostscript_used":true`)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
}

func TestHandleRecentJobs_Empty(t *testing.T) {
	srv := newTestServer(t, &mockMergeService{}, withJobLister(&mockJobLister{
		listRecentFn: func(_ context.Context, _ int) ([]merge.Record, error) {
			return nil, nil
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/recent", nil)
	rec := serveRequest(srv, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[]}`, rec.Body.String())
}

func TestHandleRecentJobs_ListError(t *testing.T) {
	srv := newTestServer(t, &mockMergeService{}, withJobLister(&mockJobLister{
		listRecentFn: func(_ context.Context, _ int) ([]merge.Record, error) {
			return nil, assert.AnError
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/recent", nil)
	rec := serveRequest(srv, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to list jobs")
}
