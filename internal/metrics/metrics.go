package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Merge Pipeline Metrics
var (
	// MergeRequestsTotal tracks merge requests by compression mode and outcome
	MergeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merge_requests_total",
			Help: "Total merge requests by compression mode and status",
		},
		[]string{"compression", "status"},
	)

	// MergeDuration tracks end-to-end merge pipeline latency in seconds
	MergeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merge_duration_seconds",
			Help:    "Merge pipeline duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"compression"},
	)

	// MergeInputFiles tracks the number of PDFs per merge request
	MergeInputFiles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "merge_input_files",
			Help:    "Number of input PDFs per merge request",
			Buckets: []float64{1, 2, 3, 5, 8, 10},
		},
	)

	// MergeUploadBytes tracks total uploaded bytes per merge request
	MergeUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "merge_upload_bytes",
			Help:    "Total uploaded bytes per merge request",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. ~256MiB
		},
	)

	// MergeOutputBytes tracks the size of the merged output PDF
	MergeOutputBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "merge_output_bytes",
			Help:    "Size of the merged output PDF in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	// ActiveMerges tracks merges currently in flight
	ActiveMerges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "merge_active",
			Help: "Number of merge requests currently in flight",
		},
	)
)

// Ghostscript Metrics
var (
	// GhostscriptInvocationsTotal tracks gs runs by quality preset and status
	GhostscriptInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghostscript_invocations_total",
			Help: "Total Ghostscript invocations by quality preset and status",
		},
		[]string{"quality", "status"},
	)

	// GhostscriptDuration tracks gs subprocess runtime in seconds
	GhostscriptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ghostscript_duration_seconds",
			Help:    "Ghostscript subprocess duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// GhostscriptFallbacksTotal tracks merges that fell back to the uncompressed output
	GhostscriptFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghostscript_fallbacks_total",
			Help: "Merges that served the uncompressed output because Ghostscript failed",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Rate Limiting Metrics
var (
	// RateLimitRejectionsTotal tracks rejected requests by limiter kind
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by rate or concurrency limits",
		},
		[]string{"limiter"},
	)
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)
)

// Audit Store Metrics
var (
	// JobRecordFailures tracks merge job audit records that could not be persisted
	JobRecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "job_record_failures_total",
			Help: "Merge job audit records that could not be persisted",
		},
	)
)
