// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_turns_total",
			Help: "Total number of dialogue turns processed",
		},
		[]string{"intent"},
	)

	TurnsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_turn_failures_total",
			Help: "Total number of dialogue turns that failed",
		},
		[]string{"operation", "error_code"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dialogue_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"operation"},
	)

	SessionSaveConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialogue_session_save_conflicts_total",
			Help: "Optimistic save conflicts that triggered a turn retry",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dialogue_sessions_active",
			Help: "Number of sessions started and not yet ended",
		},
	)
)
