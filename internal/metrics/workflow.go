package metrics

import "github.com/prometheus/client_golang/prometheus"

// Workflow and localization Prometheus metrics.
var (
	WorkflowRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfinder",
			Name:      "workflow_runs_total",
			Help:      "Total search-and-localize workflow runs by outcome",
		},
		[]string{"status"}, // completed / no_matches / localization_failed / error
	)

	WorkflowStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wayfinder",
			Name:      "workflow_stage_duration_seconds",
			Help:      "Per-stage workflow duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"}, // search / localization / total
	)

	LocalizationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfinder",
			Name:      "localization_requests_total",
			Help:      "Total localization engine calls by result",
		},
		[]string{"result"}, // success / no_pose / timeout / unavailable / error
	)

	LocalizationInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wayfinder",
			Name:      "localization_in_flight",
			Help:      "Localization engine calls currently holding a slot",
		},
	)

	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfinder",
			Name:      "search_queries_total",
			Help:      "Total frame index queries by result",
		},
		[]string{"result"}, // hit / miss
	)

	StagedFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfinder",
			Name:      "staged_files_total",
			Help:      "Total staged upload files by operation outcome",
		},
		[]string{"op", "status"}, // op: acquire / release, status: ok / error
	)
)

var workflowMetricsRegistered bool

// RegisterWorkflowMetrics registers workflow Prometheus metrics. Must be called once from main.
func RegisterWorkflowMetrics() {
	if workflowMetricsRegistered {
		return
	}
	prometheus.MustRegister(WorkflowRunsTotal)
	prometheus.MustRegister(WorkflowStageDuration)
	prometheus.MustRegister(LocalizationRequestsTotal)
	prometheus.MustRegister(LocalizationInFlight)
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(StagedFilesTotal)
	workflowMetricsRegistered = true
}
