package metrics

import "time"

// Per-source check results for RecordSourceCheck.
const (
	CheckResultNewItem          = "new_item"
	CheckResultNoChange         = "no_change"
	CheckResultFirstCheck       = "first_check"
	CheckResultDuplicate        = "duplicate"
	CheckResultFetchFailed      = "fetch_failed"
	CheckResultBreakerOpen      = "breaker_open"
	CheckResultPersistenceError = "persistence_error"
)

// RecordCycle records a completed monitoring cycle and its duration.
func RecordCycle(duration time.Duration) {
	CycleRunsTotal.WithLabelValues("completed").Inc()
	CycleDuration.Observe(duration.Seconds())
}

// RecordCycleSkipped records a cycle skipped by the active-hours gate.
func RecordCycleSkipped() {
	CycleRunsTotal.WithLabelValues("skipped").Inc()
}

// RecordSourceCheck records the result of one per-source check.
// Result is one of: new_item, no_change, first_check, duplicate,
// fetch_failed, breaker_open, persistence_error.
func RecordSourceCheck(result string) {
	SourceChecksTotal.WithLabelValues(result).Inc()
}

// RecordBreakerTrip records that a source's circuit breaker tripped open.
func RecordBreakerTrip(source string) {
	BreakerTripsTotal.WithLabelValues(source).Inc()
}

// RecordStrategySuccess records that a fetch strategy produced items.
func RecordStrategySuccess(strategy string) {
	StrategyAttemptsTotal.WithLabelValues(strategy, "success").Inc()
}

// RecordStrategyFailure records that a fetch strategy failed or came back empty.
func RecordStrategyFailure(strategy string) {
	StrategyAttemptsTotal.WithLabelValues(strategy, "failure").Inc()
}

// RecordDelivery records a per-destination delivery outcome.
func RecordDelivery(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	ItemsDeliveredTotal.WithLabelValues(outcome).Inc()
}

// RecordHistoryPruned records how many history records the retention prune removed.
func RecordHistoryPruned(count int64) {
	if count > 0 {
		HistoryPrunedTotal.Add(float64(count))
	}
}

// UpdateSourcesActive updates the active-source gauge at the start of a cycle.
func UpdateSourcesActive(count int) {
	SourcesActive.Set(float64(count))
}
