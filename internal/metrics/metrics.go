package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Workflow metrics
	WorkflowsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crucible_workflows_started_total",
			Help: "Total number of refinement workflows started",
		},
	)

	WorkflowsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crucible_workflows_completed_total",
			Help: "Total number of refinement workflows completed",
		},
		[]string{"status"},
	)

	WorkflowDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crucible_workflow_duration_seconds",
			Help:    "Refinement workflow duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	RefinementIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crucible_refinement_iterations",
			Help:    "Number of refinement iterations per completed session",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// Model call metrics
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crucible_model_calls_total",
			Help: "Total number of model calls",
		},
		[]string{"agent", "operation", "status"},
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crucible_model_call_duration_seconds",
			Help:    "Model call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "operation"},
	)

	// Critic fan-out metrics
	CriticFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crucible_critic_failures_total",
			Help: "Total number of failed critic calls",
		},
		[]string{"critic"},
	)

	RankingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crucible_ranking_failures_total",
			Help: "Total number of failed ranking calls",
		},
	)

	// Store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crucible_store_operations_total",
			Help: "Total number of artifact store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Session metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crucible_sessions_active",
			Help: "Number of sessions currently being processed",
		},
	)

	ArtifactsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crucible_artifacts_created_total",
			Help: "Total number of code artifacts created",
		},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crucible_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crucible_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
