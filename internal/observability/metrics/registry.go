// Package metrics provides centralized Prometheus metrics for the
// monitoring engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Monitoring cycle metrics
var (
	// CycleRunsTotal counts monitoring cycles by outcome (completed/skipped)
	CycleRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_cycle_runs_total",
			Help: "Total number of monitoring cycles by outcome",
		},
		[]string{"outcome"},
	)

	// CycleDuration measures monitoring cycle duration in seconds
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "monitor_cycle_duration_seconds",
			Help:    "Duration of a full monitoring cycle in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// SourcesActive tracks the number of active sources being monitored
	SourcesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_sources_active",
			Help: "Number of active sources being monitored",
		},
	)
)

// Per-source check metrics
var (
	// SourceChecksTotal counts per-source checks by result
	// (new_item, no_change, first_check, duplicate, fetch_failed,
	// breaker_open, persistence_error)
	SourceChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_source_checks_total",
			Help: "Total number of per-source checks by result",
		},
		[]string{"result"},
	)

	// BreakerTripsTotal counts circuit breaker trips per source
	BreakerTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"source"},
	)
)

// Fetch strategy metrics
var (
	// StrategyAttemptsTotal counts strategy attempts by strategy and outcome
	StrategyAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_strategy_attempts_total",
			Help: "Total number of fetch strategy attempts by outcome",
		},
		[]string{"strategy", "outcome"},
	)
)

// Delivery metrics
var (
	// ItemsDeliveredTotal counts notifications handed to delivery by outcome
	ItemsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_items_delivered_total",
			Help: "Total number of item notifications by delivery outcome",
		},
		[]string{"outcome"},
	)

	// HistoryPrunedTotal counts history records removed by the retention prune
	HistoryPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitor_history_pruned_total",
			Help: "Total number of history records pruned",
		},
	)
)
