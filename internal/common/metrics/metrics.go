// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_submissions_total",
			Help: "Total number of application submissions by terminal outcome",
		},
		[]string{"outcome"},
	)

	SubmissionPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "portal_submission_phase_duration_seconds",
			Help: "Duration of each submission phase in seconds",
		},
		[]string{"phase"},
	)

	DocumentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_document_uploads_total",
			Help: "Total number of document uploads by status",
		},
		[]string{"status"},
	)

	DocumentUploadsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_document_uploads_active",
			Help: "Number of document uploads currently in flight",
		},
	)
)
