// Command monitor runs the Instagram profile monitor: it polls subscribed
// profiles on a fixed cadence, detects new posts, and delivers them to
// Discord webhooks with at-most-once semantics.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazy2go/instagram-discord-bot/internal/infra/adapter/persistence/postgres"
	"github.com/hazy2go/instagram-discord-bot/internal/infra/adapter/persistence/sqlite"
	"github.com/hazy2go/instagram-discord-bot/internal/infra/db"
	"github.com/hazy2go/instagram-discord-bot/internal/infra/notifier"
	"github.com/hazy2go/instagram-discord-bot/internal/infra/scraper"
	"github.com/hazy2go/instagram-discord-bot/internal/infra/worker"
	"github.com/hazy2go/instagram-discord-bot/internal/observability/logging"
	"github.com/hazy2go/instagram-discord-bot/internal/observability/tracing"
	"github.com/hazy2go/instagram-discord-bot/internal/repository"
	"github.com/hazy2go/instagram-discord-bot/internal/resilience/retry"
	"github.com/hazy2go/instagram-discord-bot/internal/resilience/sourcebreaker"
	"github.com/hazy2go/instagram-discord-bot/internal/usecase/dedup"
	"github.com/hazy2go/instagram-discord-bot/internal/usecase/deliver"
	"github.com/hazy2go/instagram-discord-bot/internal/usecase/fetch"
	"github.com/hazy2go/instagram-discord-bot/internal/usecase/monitor"
)

func main() {
	logger := logging.NewLogger()

	shutdownTracer := tracing.InitTracer()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	// Load monitor configuration (fail-open strategy)
	monitorMetrics := worker.NewMonitorMetrics()
	cfg, err := worker.LoadConfigFromEnv(logger, monitorMetrics)
	if err != nil {
		logger.Error("failed to load monitor configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("monitor configuration loaded",
		slog.Duration("check_interval", cfg.CheckInterval),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Int("active_hours_start", cfg.ActiveHoursStart),
		slog.Int("active_hours_end", cfg.ActiveHoursEnd),
		slog.String("timezone", cfg.Timezone),
		slog.Int("retention_days", cfg.RetentionDays),
		slog.Int("metrics_port", cfg.MetricsPort))

	database, driver := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if err := db.MigrateUp(database, driver); err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	sources, destinations, history := buildRepositories(database, driver)
	logger.Info("persistence initialized", slog.String("driver", driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SourcesFile != "" {
		seeds, err := worker.LoadSeedSources(cfg.SourcesFile)
		if err != nil {
			logger.Error("failed to load sources file", slog.Any("error", err))
			os.Exit(1)
		}
		if err := worker.SyncSeedSources(ctx, sources, destinations, seeds, logger); err != nil {
			logger.Error("failed to sync seed sources", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("seed sources synced",
			slog.String("file", cfg.SourcesFile),
			slog.Int("entries", len(seeds)))
	}

	chain := buildFetchChain(logger, cfg)
	detector := buildDetector(logger, cfg, history)
	deliverService := deliver.NewService(notifier.NewDiscordNotifier(notifier.DiscordConfig{
		Timeout: cfg.FetchTimeout,
	}), logger)
	breaker := sourcebreaker.New(sourcebreaker.Config{})

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	svc := monitor.NewService(sources, destinations, history,
		chain, detector, deliverService, breaker, logger, monitor.Config{
			CheckInterval:    cfg.CheckInterval,
			Concurrency:      cfg.Concurrency,
			ActiveHoursStart: cfg.ActiveHoursStart,
			ActiveHoursEnd:   cfg.ActiveHoursEnd,
			Location:         loc,
			RetentionDays:    cfg.RetentionDays,
		})

	healthAddr := fmt.Sprintf(":%d", cfg.MetricsPort)
	healthServer := worker.NewHealthServer(healthAddr, logger, func() any {
		return svc.Status()
	})
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health/status server started", slog.String("addr", healthAddr))

	if err := svc.Start(ctx); err != nil {
		logger.Error("failed to start monitor", slog.Any("error", err))
		os.Exit(1)
	}
	healthServer.SetReady(true)
	logger.Info("monitor ready")

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)
	svc.Stop()
	logger.Info("monitor shut down")
}

// buildRepositories selects the persistence adapters for the configured
// database driver.
func buildRepositories(database *sql.DB, driver string) (repository.SourceRepository, repository.DestinationRepository, repository.HistoryRepository) {
	if driver == db.DriverSQLite {
		return sqlite.NewSourceRepo(database),
			sqlite.NewDestinationRepo(database),
			sqlite.NewHistoryRepo(database)
	}
	return postgres.NewSourceRepo(database),
		postgres.NewDestinationRepo(database),
		postgres.NewHistoryRepo(database)
}

// buildFetchChain assembles the fetch strategies in preference order: the
// RSS bridge when configured, then the public profile page.
func buildFetchChain(logger *slog.Logger, cfg *worker.MonitorConfig) *fetch.Chain {
	client := &http.Client{Timeout: cfg.FetchTimeout}

	var strategies []fetch.Strategy
	retryConfigs := make(map[string]retry.Config)

	if cfg.RSSBridgeURL != "" {
		bridge := scraper.NewRSSBridgeStrategy(cfg.RSSBridgeURL, client)
		strategies = append(strategies, bridge)
		retryConfigs[bridge.Name()] = retry.FeedConfig()
		logger.Info("rss-bridge strategy enabled", slog.String("base_url", cfg.RSSBridgeURL))
	}

	profile := scraper.NewWebProfileStrategy(client)
	strategies = append(strategies, profile)
	retryConfigs[profile.Name()] = retry.ScrapeConfig()

	return fetch.NewChain(strategies, fetch.ChainConfig{RetryConfigs: retryConfigs})
}

// buildDetector wires the duplicate detector. The destination recency scan
// needs a bot token; without one the detector runs on history alone.
func buildDetector(logger *slog.Logger, cfg *worker.MonitorConfig, history repository.HistoryRepository) *dedup.Detector {
	var scanner dedup.MessageScanner
	if cfg.DiscordBotToken != "" {
		scanner = notifier.NewChannelScanner(cfg.DiscordBotToken, cfg.FetchTimeout)
		logger.Info("channel recency scan enabled")
	} else {
		logger.Info("channel recency scan disabled, no bot token configured")
	}
	return dedup.NewDetector(history, scanner, cfg.ScanDepth, logger)
}
