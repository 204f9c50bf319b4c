// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	EligibilityDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_decisions_total",
			Help: "Eligibility decisions by overall outcome and risk grade",
		},
		[]string{"decision", "risk_grade"},
	)

	LenderOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_lender_outcomes_total",
			Help: "Per-lender outcomes produced by eligibility evaluations",
		},
		[]string{"lender", "bucket"},
	)

	PolicyTableLenders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "policy_table_lenders",
			Help: "Number of lenders in the loaded policy table",
		},
		[]string{"source"},
	)
)
