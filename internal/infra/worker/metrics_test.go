package worker

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	enginemetrics "github.com/hazy2go/instagram-discord-bot/internal/observability/metrics"
)

// The monitor binary links both this package and the engine's metrics
// package into one process, so both must register cleanly in the default
// Prometheus registry. globalTestMetrics is constructed at package init
// alongside the engine registry; a name collision would panic before any
// test runs.
func TestMonitorMetricsCoexistsWithEngineMetrics(t *testing.T) {
	before := testutil.ToFloat64(enginemetrics.CycleRunsTotal.WithLabelValues("completed"))
	enginemetrics.RecordCycle(10 * time.Millisecond)
	after := testutil.ToFloat64(enginemetrics.CycleRunsTotal.WithLabelValues("completed"))
	assert.Equal(t, before+1, after)

	globalTestMetrics.RecordValidationError("coexist_check")
	count := testutil.ToFloat64(globalTestMetrics.ValidationErrorsTotal.WithLabelValues("coexist_check"))
	assert.Equal(t, float64(1), count)
}
