// Package metrics defines the Prometheus instrumentation for the form engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Form engine metrics
var (
	// FormSessionsOpened tracks opened form sessions by kind.
	FormSessionsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_sessions_opened_total",
			Help: "Total number of assignment form sessions opened by kind",
		},
		[]string{"kind"},
	)

	// FormSessionsActive tracks currently open form sessions.
	FormSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "form_sessions_active",
			Help: "Number of assignment form sessions currently open",
		},
	)

	// CascadeResets tracks fields cleared by cascade resets.
	CascadeResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_resets_total",
			Help: "Total number of draft fields cleared by cascade resets",
		},
		[]string{"field"},
	)

	// CandidateFetches tracks candidate-manager fetches by outcome.
	CandidateFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_fetches_total",
			Help: "Total number of candidate-manager fetches by outcome",
		},
		[]string{"outcome"},
	)

	// StaleCandidateResponses tracks superseded fetch responses discarded
	// by the latest-request-wins guard.
	StaleCandidateResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stale_candidate_responses_discarded_total",
			Help: "Total number of candidate fetch responses discarded as stale",
		},
	)

	// ValidationFailures tracks draft validation failures by field.
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_validation_failures_total",
			Help: "Total number of draft validation failures by field",
		},
		[]string{"field"},
	)

	// Submissions tracks form submissions by kind and result.
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Total number of form submissions by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// Directory client metrics
var (
	// DirectoryRequests tracks directory API requests by operation and outcome.
	DirectoryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_requests_total",
			Help: "Total number of directory API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// DirectoryRequestDuration tracks directory API request duration.
	DirectoryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directory_request_duration_seconds",
			Help:    "Directory API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// SnapshotCacheHits tracks hierarchy snapshot cache hits and misses.
	SnapshotCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_cache_requests_total",
			Help: "Total number of hierarchy snapshot cache lookups by result",
		},
		[]string{"result"},
	)
)

// HTTP server metrics
var (
	// HTTPRequestsTotal tracks HTTP requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
)
