// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_submissions_started_total",
			Help: "Total number of submission pipeline runs started",
		},
	)

	SubmissionsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_submissions_completed_total",
			Help: "Total number of submission pipeline runs completed successfully",
		},
	)

	SubmissionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_submissions_failed_total",
			Help: "Total number of submission pipeline runs failed, by phase",
		},
		[]string{"phase"},
	)

	DocumentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_document_uploads_total",
			Help: "Total number of document uploads attempted, by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "loan_submission_duration_seconds",
			Help: "Duration of full submission pipeline runs in seconds",
		},
	)

	StorePersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_store_persist_failures_total",
			Help: "Total number of failed draft-store persistence writes",
		},
	)

	StoreActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_store_actions_total",
			Help: "Total number of store actions dispatched, by type",
		},
		[]string{"action"},
	)
)
