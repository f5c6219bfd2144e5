// Package worker holds the runtime support for the monitor process:
// environment configuration with validated fallbacks, config metrics,
// the health/status HTTP server, and the YAML source seed loader.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hazy2go/instagram-discord-bot/internal/pkg/config"
)

// MonitorConfig holds the configuration for the monitor component.
// It controls the check cadence, concurrency, active-hours window, and
// the external collaborators (RSS-Bridge, Discord, database retention).
//
// All fields have defaults and validation rules so the monitor can
// operate safely even with invalid or missing configuration.
type MonitorConfig struct {
	// CheckInterval is the period between monitoring cycles.
	// Default: 30 minutes
	CheckInterval time.Duration

	// Concurrency is the maximum number of per-source checks running at
	// the same instant. Range: 1-50. Default: 5
	Concurrency int

	// ActiveHoursStart and ActiveHoursEnd bound the hours (in Timezone)
	// during which cycles run. -1 disables the gate. The window may wrap
	// midnight (start > end). Range: -1-23. Default: -1 (always active)
	ActiveHoursStart int
	ActiveHoursEnd   int

	// Timezone is the IANA timezone name for the active-hours gate.
	// Default: "UTC"
	Timezone string

	// RetentionDays is the notification history retention window.
	// Range: 1-365. Default: 30
	RetentionDays int

	// ScanDepth is how many recent destination messages the duplicate
	// detector inspects. Range: 1-20. Default: 4
	ScanDepth int

	// FetchTimeout bounds each upstream network call.
	// Default: 20 seconds
	FetchTimeout time.Duration

	// RSSBridgeURL is the base URL of the RSS-Bridge instance used by
	// the feed strategy. Empty disables that strategy.
	RSSBridgeURL string

	// DiscordBotToken authenticates the channel scanner. Empty disables
	// the recency-scan dedup layer.
	DiscordBotToken string

	// SourcesFile is an optional YAML file seeding the source registry
	// at startup.
	SourcesFile string

	// MetricsPort is the port for the metrics/health/status HTTP server.
	// Range: 1024-65535. Default: 9090
	MetricsPort int
}

// DefaultConfig returns a MonitorConfig with production defaults: a 30
// minute cadence, 5 concurrent checks, no active-hours gate, and 30 days
// of history retention.
func DefaultConfig() MonitorConfig {
	return MonitorConfig{
		CheckInterval:    30 * time.Minute,
		Concurrency:      5,
		ActiveHoursStart: -1,
		ActiveHoursEnd:   -1,
		Timezone:         "UTC",
		RetentionDays:    30,
		ScanDepth:        4,
		FetchTimeout:     20 * time.Second,
		MetricsPort:      9090,
	}
}

// Validate checks the configuration values using the reusable validators
// from internal/pkg/config. All field errors are collected and returned
// together.
func (c *MonitorConfig) Validate() error {
	var errors []error

	if err := config.ValidateDuration(c.CheckInterval, 1*time.Minute, 24*time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("check interval: %w", err))
	}

	if err := config.ValidateIntRange(c.Concurrency, 1, 50); err != nil {
		errors = append(errors, fmt.Errorf("concurrency: %w", err))
	}

	if err := config.ValidateIntRange(c.ActiveHoursStart, -1, 23); err != nil {
		errors = append(errors, fmt.Errorf("active hours start: %w", err))
	}
	if err := config.ValidateIntRange(c.ActiveHoursEnd, -1, 23); err != nil {
		errors = append(errors, fmt.Errorf("active hours end: %w", err))
	}
	// The gate needs both ends or neither
	if (c.ActiveHoursStart == -1) != (c.ActiveHoursEnd == -1) {
		errors = append(errors, fmt.Errorf("active hours: start and end must both be set or both be -1"))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateIntRange(c.RetentionDays, 1, 365); err != nil {
		errors = append(errors, fmt.Errorf("retention days: %w", err))
	}

	if err := config.ValidateIntRange(c.ScanDepth, 1, 20); err != nil {
		errors = append(errors, fmt.Errorf("scan depth: %w", err))
	}

	if err := config.ValidateDuration(c.FetchTimeout, 1*time.Second, 5*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("fetch timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("metrics port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// LoadConfigFromEnv loads monitor configuration from environment variables
// with validation and automatic fallback to defaults on failure.
//
// The load is fail-open: an invalid value falls back to its default with
// a logged warning and a metrics increment, and the function never
// returns an error.
//
// Environment variables:
//   - CHECK_INTERVAL: Duration string, e.g. "30m" (default: 30 minutes)
//   - MONITOR_CONCURRENCY: Integer 1-50 (default: 5)
//   - ACTIVE_HOURS_START / ACTIVE_HOURS_END: Integer -1-23 (default: -1)
//   - MONITOR_TIMEZONE: IANA timezone name (default: "UTC")
//   - HISTORY_RETENTION_DAYS: Integer 1-365 (default: 30)
//   - DEDUP_SCAN_DEPTH: Integer 1-20 (default: 4)
//   - FETCH_TIMEOUT: Duration string (default: 20 seconds)
//   - RSS_BRIDGE_URL: RSS-Bridge base URL (no default)
//   - DISCORD_BOT_TOKEN: Bot token for the channel scanner (no default)
//   - SOURCES_FILE: YAML seed file path (no default)
//   - METRICS_PORT: Integer 1024-65535 (default: 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *MonitorMetrics) (*MonitorConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	warn := func(field string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvDuration("CHECK_INTERVAL", cfg.CheckInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 24*time.Hour)
	})
	cfg.CheckInterval = result.Value.(time.Duration)
	if result.FallbackApplied {
		warn("check_interval", result.Warnings)
	}

	result = config.LoadEnvInt("MONITOR_CONCURRENCY", cfg.Concurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.Concurrency = result.Value.(int)
	if result.FallbackApplied {
		warn("concurrency", result.Warnings)
	}

	hourValidator := func(v int) error { return config.ValidateIntRange(v, -1, 23) }

	result = config.LoadEnvInt("ACTIVE_HOURS_START", cfg.ActiveHoursStart, hourValidator)
	cfg.ActiveHoursStart = result.Value.(int)
	if result.FallbackApplied {
		warn("active_hours_start", result.Warnings)
	}

	result = config.LoadEnvInt("ACTIVE_HOURS_END", cfg.ActiveHoursEnd, hourValidator)
	cfg.ActiveHoursEnd = result.Value.(int)
	if result.FallbackApplied {
		warn("active_hours_end", result.Warnings)
	}

	// A half-configured window would make the gate unpredictable
	if (cfg.ActiveHoursStart == -1) != (cfg.ActiveHoursEnd == -1) {
		logger.Warn("Configuration fallback applied",
			slog.String("field", "active_hours"),
			slog.String("warning", "only one of start/end set, disabling active-hours gate"))
		metrics.RecordValidationError("active_hours")
		metrics.RecordFallback("active_hours", "default")
		fallbackApplied = true
		cfg.ActiveHoursStart = -1
		cfg.ActiveHoursEnd = -1
	}

	strResult := config.LoadEnvWithFallback("MONITOR_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = strResult.Value.(string)
	if strResult.FallbackApplied {
		warn("timezone", strResult.Warnings)
	}

	result = config.LoadEnvInt("HISTORY_RETENTION_DAYS", cfg.RetentionDays, func(v int) error {
		return config.ValidateIntRange(v, 1, 365)
	})
	cfg.RetentionDays = result.Value.(int)
	if result.FallbackApplied {
		warn("retention_days", result.Warnings)
	}

	result = config.LoadEnvInt("DEDUP_SCAN_DEPTH", cfg.ScanDepth, func(v int) error {
		return config.ValidateIntRange(v, 1, 20)
	})
	cfg.ScanDepth = result.Value.(int)
	if result.FallbackApplied {
		warn("scan_depth", result.Warnings)
	}

	result = config.LoadEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Second, 5*time.Minute)
	})
	cfg.FetchTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		warn("fetch_timeout", result.Warnings)
	}

	cfg.RSSBridgeURL = config.LoadEnvString("RSS_BRIDGE_URL", cfg.RSSBridgeURL)
	cfg.DiscordBotToken = config.LoadEnvString("DISCORD_BOT_TOKEN", cfg.DiscordBotToken)
	cfg.SourcesFile = config.LoadEnvString("SOURCES_FILE", cfg.SourcesFile)

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.MetricsPort = result.Value.(int)
	if result.FallbackApplied {
		warn("metrics_port", result.Warnings)
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
