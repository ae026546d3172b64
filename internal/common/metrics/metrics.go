// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StagesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_stages_completed_total",
			Help: "Total number of stage invocations by outcome status",
		},
		[]string{"stage", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "verification_stage_duration_seconds",
			Help: "Duration of individual stage invocations in seconds",
		},
		[]string{"stage"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifications_total",
			Help: "Completed verification runs by subject type and overall status",
		},
		[]string{"subject_type", "status"},
	)

	RiskScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "verification_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: prometheus.LinearBuckets(0, 100, 11),
		},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verification_persistence_failures_total",
			Help: "Best-effort record persistence failures (non-fatal)",
		},
	)
)
