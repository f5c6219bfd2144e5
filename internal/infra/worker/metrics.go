package worker

import (
	"github.com/hazy2go/instagram-discord-bot/internal/pkg/config"
)

// MonitorMetrics provides Prometheus metrics for the monitor process
// surface. It embeds the standard ConfigMetrics for configuration
// monitoring; cycle and per-source check metrics live in
// internal/observability/metrics, which the scheduler records directly.
//
// Embedded metrics (from ConfigMetrics):
//   - monitor_config_load_timestamp: Unix timestamp of last configuration load
//   - monitor_config_validation_errors_total: Total validation errors by field
//   - monitor_config_fallbacks_total: Total fallback operations by field
//   - monitor_config_fallback_active: 1 if any fallback active, 0 otherwise
type MonitorMetrics struct {
	*config.ConfigMetrics
}

// NewMonitorMetrics creates a new MonitorMetrics instance with all metrics
// initialized. Metrics are auto-registered via promauto.
func NewMonitorMetrics() *MonitorMetrics {
	return &MonitorMetrics{
		ConfigMetrics: config.NewConfigMetrics("monitor"),
	}
}
