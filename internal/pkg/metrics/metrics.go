package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talent_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// EnrichmentTriggers counts TryTrigger outcomes by reason.
	EnrichmentTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_enrichment_triggers_total",
			Help: "Enrichment trigger attempts by outcome",
		},
		[]string{"outcome"},
	)

	EnrichmentRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_enrichment_runs_total",
			Help: "Executed enrichment runs by result",
		},
		[]string{"result"},
	)

	EnrichmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "talent_enrichment_duration_seconds",
			Help:    "Duration of collect plus AI enrichment",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	ApprovalResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_approval_resolutions_total",
			Help: "Approval request resolutions by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ProfileTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_profile_transitions_total",
			Help: "Profile status transitions by name and outcome",
		},
		[]string{"transition", "outcome"},
	)

	StaleEnrichmentsReset = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talent_stale_enrichments_reset_total",
			Help: "Profiles reset from enriching by the sweeper",
		},
	)

	CronJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_cron_job_runs_total",
			Help: "Scheduled job executions by job and result",
		},
		[]string{"job", "result"},
	)
)
