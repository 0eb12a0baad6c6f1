// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the fantasy league scoring service.
var (
	// Counters.
	LedgerEventsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_recorded_total",
			Help: "Total number of contestant events appended to the ledger",
		},
		[]string{"event_type", "category"},
	)

	LedgerEventsReversedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_reversed_total",
			Help: "Total number of reversal entries appended to the ledger",
		},
		[]string{"event_type"},
	)

	PredictionsScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_scored_total",
			Help: "Total number of predictions scored",
		},
		[]string{"result"},
	)

	PredictionLockTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_lock_toggles_total",
			Help: "Total number of episode prediction lock changes",
		},
		[]string{"action"},
	)

	SoleSurvivorChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sole_survivor_changes_total",
			Help: "Total number of sole survivor pick changes",
		},
	)

	PerformanceCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "performance_cache_hits_total",
			Help: "Contestant performance reads served from cache",
		},
	)

	PerformanceCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "performance_cache_misses_total",
			Help: "Contestant performance reads recomputed from the ledger",
		},
	)

	// Gauges.
	ProjectionLastRefreshTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projection_last_refresh_timestamp",
			Help: "Unix timestamp of the last score projection refresh",
		},
	)

	// Histograms.
	TeamScoreComputeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "team_score_compute_seconds",
			Help:    "Time taken to compose a player's team score",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	ProjectionRefreshDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "projection_refresh_duration_seconds",
			Help:    "Time taken to refresh score projections",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)

	ProjectionRefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projection_refresh_runs_total",
			Help: "Total score projection refresh executions",
		},
		[]string{"status"},
	)
)

// RecordLedgerEvent records an appended ledger entry.
func RecordLedgerEvent(eventType, category string) {
	LedgerEventsRecordedTotal.WithLabelValues(eventType, category).Inc()
}

// RecordLedgerReversal records an appended reversal entry.
func RecordLedgerReversal(eventType string) {
	LedgerEventsReversedTotal.WithLabelValues(eventType).Inc()
}

// RecordPredictionScored records a scored prediction.
func RecordPredictionScored(result string) {
	PredictionsScoredTotal.WithLabelValues(result).Inc()
}

// RecordPredictionLockToggle records an episode lock change.
func RecordPredictionLockToggle(action string) {
	PredictionLockTogglesTotal.WithLabelValues(action).Inc()
}

// RecordSoleSurvivorChange records a pick change.
func RecordSoleSurvivorChange() {
	SoleSurvivorChangesTotal.Inc()
}

// RecordPerformanceCacheHit records a performance read served from cache.
func RecordPerformanceCacheHit() {
	PerformanceCacheHitsTotal.Inc()
}

// RecordPerformanceCacheMiss records a performance read recomputed from the ledger.
func RecordPerformanceCacheMiss() {
	PerformanceCacheMissesTotal.Inc()
}

// ObserveTeamScoreCompute observes a team score composition duration.
func ObserveTeamScoreCompute(seconds float64) {
	TeamScoreComputeSeconds.Observe(seconds)
}

// RecordProjectionRefresh records a projection refresh execution.
func RecordProjectionRefresh(status string) {
	ProjectionRefreshRunsTotal.WithLabelValues(status).Inc()
}

// ObserveProjectionRefreshDuration observes a projection refresh duration.
func ObserveProjectionRefreshDuration(seconds float64) {
	ProjectionRefreshDurationSeconds.Observe(seconds)
}

// SetProjectionLastRefresh sets the timestamp of the last projection refresh.
func SetProjectionLastRefresh() {
	ProjectionLastRefreshTimestamp.SetToCurrentTime()
}
