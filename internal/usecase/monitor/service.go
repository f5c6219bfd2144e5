// Package monitor implements the concurrency-bounded polling scheduler.
// It drives periodic check cycles over all active sources, gates cycles by
// an optional active-hours window, serializes access per source across
// overlapping cycles, and wires the fetch chain, duplicate detector and
// delivery service into the per-source check routine.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/observability/logging"
	"github.com/hazy2go/instagram-discord-bot/internal/observability/metrics"
	"github.com/hazy2go/instagram-discord-bot/internal/observability/tracing"
	"github.com/hazy2go/instagram-discord-bot/internal/repository"
	"github.com/hazy2go/instagram-discord-bot/internal/resilience/sourcebreaker"
	"github.com/hazy2go/instagram-discord-bot/internal/usecase/deliver"
)

// Fetcher pulls the latest items for a profile handle, newest first.
// Implemented by the fetch strategy chain.
type Fetcher interface {
	FetchLatestItems(ctx context.Context, handle string) ([]entity.Item, error)
}

// DuplicateChecker decides whether an item was already reported.
// Implemented by the dedup detector.
type DuplicateChecker interface {
	IsAlreadyNotified(ctx context.Context, sourceID int64, itemURL string, destinations []*entity.Destination) bool
}

// Deliverer hands a new item to all destinations of a source.
// Implemented by the delivery service.
type Deliverer interface {
	Deliver(ctx context.Context, item *entity.Item, source *entity.Source, destinations []*entity.Destination) []deliver.Result
}

// Config holds scheduler tuning.
type Config struct {
	// CheckInterval is the period between cycles. Default: 30 minutes.
	CheckInterval time.Duration

	// Concurrency bounds the number of per-source checks in flight at any
	// instant. Default: 5.
	Concurrency int

	// ActiveHoursStart and ActiveHoursEnd bound the hours during which
	// cycles run. -1 disables the gate. start > end wraps midnight;
	// start == end follows the wrap rule and means the full day.
	ActiveHoursStart int
	ActiveHoursEnd   int

	// Location is the timezone for the active-hours gate. Default: UTC.
	Location *time.Location

	// RetentionDays is passed to the history prune hook each cycle.
	// Default: 30.
	RetentionDays int

	// SourceDelayMin and SourceDelayMax bound the randomized sleep a
	// worker takes after finishing a source, before its slot frees up.
	// Defaults: 2000ms and 3000ms.
	SourceDelayMin time.Duration
	SourceDelayMax time.Duration

	// Clock provides time abstraction for testing. Default: system time.
	Clock sourcebreaker.Clock
}

// Counters are the scheduler's own cumulative counters, exposed through
// Status. They complement the Prometheus metrics with a pull-based view.
type Counters struct {
	CyclesCompleted int64 `json:"cycles_completed"`
	CyclesSkipped   int64 `json:"cycles_skipped"`
	ChecksRun       int64 `json:"checks_run"`
	ItemsDelivered  int64 `json:"items_delivered"`
	FetchFailures   int64 `json:"fetch_failures"`
}

// Service is the monitoring scheduler. Create with NewService, then Start.
type Service struct {
	sources      repository.SourceRepository
	destinations repository.DestinationRepository
	history      repository.HistoryRepository
	fetcher      Fetcher
	detector     DuplicateChecker
	deliverer    Deliverer
	breaker      *sourcebreaker.Breaker
	logger       *slog.Logger
	config       Config

	mu      sync.Mutex
	cron    *cron.Cron
	running bool

	// sourceLocks serializes all mutation of a single source's state, so
	// overlapping cycles can never interleave on the same source.
	sourceLocks sync.Map // handle -> *sync.Mutex

	sourcesMonitored atomic.Int64
	cyclesCompleted  atomic.Int64
	cyclesSkipped    atomic.Int64
	checksRun        atomic.Int64
	itemsDelivered   atomic.Int64
	fetchFailures    atomic.Int64
}

// NewService creates a scheduler over the given collaborators.
func NewService(
	sources repository.SourceRepository,
	destinations repository.DestinationRepository,
	history repository.HistoryRepository,
	fetcher Fetcher,
	detector DuplicateChecker,
	deliverer Deliverer,
	breaker *sourcebreaker.Breaker,
	logger *slog.Logger,
	config Config,
) *Service {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 30 * time.Minute
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 30
	}
	if config.SourceDelayMin <= 0 {
		config.SourceDelayMin = 2000 * time.Millisecond
	}
	if config.SourceDelayMax <= config.SourceDelayMin {
		config.SourceDelayMax = config.SourceDelayMin + 1000*time.Millisecond
	}
	if config.Clock == nil {
		config.Clock = &sourcebreaker.SystemClock{}
	}

	return &Service{
		sources:      sources,
		destinations: destinations,
		history:      history,
		fetcher:      fetcher,
		detector:     detector,
		deliverer:    deliverer,
		breaker:      breaker,
		logger:       logger,
		config:       config,
	}
}

// Start runs one cycle immediately and then schedules cycles on the
// configured period. Calling Start while running is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New(cron.WithLocation(s.config.Location))
	spec := fmt.Sprintf("@every %s", s.config.CheckInterval)
	if _, err := c.AddFunc(spec, func() {
		s.RunCycle(ctx)
	}); err != nil {
		return fmt.Errorf("Start: schedule %q: %w", spec, err)
	}

	s.cron = c
	s.running = true

	// First cycle fires right away rather than one full interval out.
	go s.RunCycle(ctx)
	c.Start()

	s.logger.Info("monitor started",
		slog.Duration("check_interval", s.config.CheckInterval),
		slog.Int("concurrency", s.config.Concurrency))
	return nil
}

// Stop cancels the periodic trigger. In-flight per-source checks finish
// naturally. Idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.cron = nil
	s.running = false
	s.logger.Info("monitor stopped")
}

// RunCycle executes one monitoring cycle: the active-hours gate, the
// bounded-concurrency sweep over all active sources, and the history prune
// hook. A failing source never aborts the cycle or affects other sources.
func (s *Service) RunCycle(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "monitor.cycle")
	defer span.End()

	now := s.config.Clock.Now()
	if !s.withinActiveHours(now) {
		s.cyclesSkipped.Add(1)
		metrics.RecordCycleSkipped()
		s.logger.Info("cycle skipped outside active hours",
			slog.Int("hour", now.In(s.config.Location).Hour()),
			slog.Int("active_hours_start", s.config.ActiveHoursStart),
			slog.Int("active_hours_end", s.config.ActiveHoursEnd))
		return
	}

	start := time.Now()

	sources, err := s.sources.ListActive(ctx)
	if err != nil {
		s.logger.Error("cycle failed to list active sources", slog.Any("error", err))
		return
	}

	s.sourcesMonitored.Store(int64(len(sources)))
	metrics.UpdateSourcesActive(len(sources))

	if len(sources) == 0 {
		s.logger.Info("cycle skipped, no active sources")
		return
	}

	s.logger.Info("cycle starting", slog.Int("sources", len(sources)))

	g := &errgroup.Group{}
	g.SetLimit(s.config.Concurrency)
	for _, src := range sources {
		g.Go(func() error {
			s.checkSourceSerialized(ctx, src)
			// The slot stays occupied during the spacing sleep, which is
			// what keeps the sweep from bursting the upstream.
			s.sleepBetweenSources(ctx)
			return nil
		})
	}
	// Workers never return errors; failures are accounted per source.
	_ = g.Wait()

	s.pruneHistory(ctx)

	elapsed := time.Since(start)
	s.cyclesCompleted.Add(1)
	metrics.RecordCycle(elapsed)
	s.logger.Info("cycle finished",
		slog.Int("sources", len(sources)),
		slog.Duration("elapsed", elapsed))
}

// checkSourceSerialized takes the source's mutex before running the check
// routine, so a slow check from an overlapping cycle cannot interleave.
func (s *Service) checkSourceSerialized(ctx context.Context, src *entity.Source) {
	lock := s.lockFor(src.Handle)
	lock.Lock()
	defer lock.Unlock()
	s.checkSource(ctx, src)
}

// checkSource runs the per-source check routine. All terminal paths record
// exactly one check-result metric.
func (s *Service) checkSource(ctx context.Context, src *entity.Source) {
	ctx, span := tracing.StartSpan(ctx, "monitor.check_source")
	defer span.End()

	logger := logging.WithSource(s.logger, src.Handle)
	s.checksRun.Add(1)

	if s.breaker.IsOpen(src.Handle) {
		logger.Info("check skipped, circuit open")
		metrics.RecordSourceCheck(metrics.CheckResultBreakerOpen)
		return
	}

	items, err := s.fetcher.FetchLatestItems(ctx, src.Handle)
	if err != nil || len(items) == 0 {
		s.fetchFailures.Add(1)
		if tripped := s.breaker.RecordFailure(src.Handle); tripped {
			metrics.RecordBreakerTrip(src.Handle)
			logger.Warn("circuit tripped open", slog.Any("error", err))
		} else {
			logger.Warn("fetch failed", slog.Any("error", err))
		}
		metrics.RecordSourceCheck(metrics.CheckResultFetchFailed)
		s.touchCheckedAt(ctx, src, logger)
		return
	}

	s.breaker.RecordSuccess(src.Handle)
	newest := items[0]

	if src.LastItemID == nil {
		// First successful check: remember the newest item without
		// notifying, so a fresh subscription never floods its
		// destinations with historical posts.
		if err := s.sources.UpdateLastItemID(ctx, src.ID, newest.ID); err != nil {
			logger.Error("failed to store first-check marker", slog.Any("error", err))
			metrics.RecordSourceCheck(metrics.CheckResultPersistenceError)
			s.touchCheckedAt(ctx, src, logger)
			return
		}
		src.LastItemID = &newest.ID
		logger.Info("first check, marker initialized", slog.String("item_id", newest.ID))
		metrics.RecordSourceCheck(metrics.CheckResultFirstCheck)
		s.touchCheckedAt(ctx, src, logger)
		return
	}

	if *src.LastItemID == newest.ID {
		logger.Debug("no new content", slog.String("item_id", newest.ID))
		metrics.RecordSourceCheck(metrics.CheckResultNoChange)
		s.touchCheckedAt(ctx, src, logger)
		return
	}

	destinations, err := s.destinations.ListForSource(ctx, src.ID)
	if err != nil {
		logger.Error("failed to list destinations", slog.Any("error", err))
		metrics.RecordSourceCheck(metrics.CheckResultPersistenceError)
		s.touchCheckedAt(ctx, src, logger)
		return
	}

	if s.detector.IsAlreadyNotified(ctx, src.ID, newest.URL, destinations) {
		// Already reported out-of-band or by a previous run. Advance the
		// marker anyway so the same item is not re-detected every cycle.
		logger.Info("item already notified, advancing marker",
			slog.String("item_id", newest.ID))
		metrics.RecordSourceCheck(metrics.CheckResultDuplicate)
		s.advanceMarker(ctx, src, newest.ID, logger)
		s.touchCheckedAt(ctx, src, logger)
		return
	}

	results := s.deliverer.Deliver(ctx, &newest, src, destinations)
	delivered := 0
	for _, r := range results {
		if r.Success {
			delivered++
		}
	}
	s.itemsDelivered.Add(1)
	logger.Info("new item delivered",
		slog.String("item_id", newest.ID),
		slog.Int("destinations", len(results)),
		slog.Int("succeeded", delivered))

	// History is recorded regardless of per-destination outcome: the goal
	// is to never re-attempt the same item forever, not to guarantee every
	// destination received it.
	if err := s.history.RecordNotified(ctx, src.ID, newest.ID, newest.URL); err != nil {
		logger.Error("failed to record notification history", slog.Any("error", err))
	}

	metrics.RecordSourceCheck(metrics.CheckResultNewItem)
	s.advanceMarker(ctx, src, newest.ID, logger)
	s.touchCheckedAt(ctx, src, logger)
}

// ForceCheck clears the source's marker for a single run of the check
// routine, forcing first-check treatment: the marker resynchronizes to the
// newest upstream item without notifying. When the forced fetch finds
// nothing the original marker is left untouched.
func (s *Service) ForceCheck(ctx context.Context, handle string) error {
	src, err := s.sources.GetByHandle(ctx, handle)
	if err != nil {
		return fmt.Errorf("ForceCheck: %w", err)
	}
	if src == nil {
		return fmt.Errorf("ForceCheck: %s: %w", handle, entity.ErrSourceNotFound)
	}
	if !src.Active {
		return fmt.Errorf("ForceCheck: %s: %w", handle, entity.ErrSourceInactive)
	}

	lock := s.lockFor(src.Handle)
	lock.Lock()
	defer lock.Unlock()

	// Clearing only the in-memory copy means a failed fetch leaves the
	// persisted marker exactly as it was.
	forced := *src
	forced.LastItemID = nil
	s.checkSource(ctx, &forced)
	return nil
}

// ActiveHours describes the configured gate in the status snapshot.
type ActiveHours struct {
	Enabled  bool   `json:"enabled"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Timezone string `json:"timezone"`
}

// BreakerStatus is one source's circuit snapshot in the status surface.
type BreakerStatus struct {
	Source              string `json:"source"`
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastFailureAt       string `json:"last_failure_at,omitempty"`
}

// StatusSnapshot is the read-only view served on the status endpoint.
type StatusSnapshot struct {
	Running              bool            `json:"running"`
	CheckIntervalMinutes int             `json:"check_interval_minutes"`
	SourcesMonitored     int             `json:"sources_monitored"`
	ActiveHours          ActiveHours     `json:"active_hours"`
	CircuitBreakerStates []BreakerStatus `json:"circuit_breaker_states"`
	Metrics              Counters        `json:"metrics"`
}

// Status returns the current scheduler snapshot. Side-effect-free and safe
// for concurrent use.
func (s *Service) Status() StatusSnapshot {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	states := s.breaker.States()
	breakers := make([]BreakerStatus, 0, len(states))
	for _, st := range states {
		b := BreakerStatus{
			Source:              st.Key,
			State:               st.State.String(),
			ConsecutiveFailures: st.ConsecutiveFailures,
		}
		if !st.LastFailureAt.IsZero() {
			b.LastFailureAt = st.LastFailureAt.Format(time.RFC3339)
		}
		breakers = append(breakers, b)
	}

	return StatusSnapshot{
		Running:              running,
		CheckIntervalMinutes: int(s.config.CheckInterval.Minutes()),
		SourcesMonitored:     int(s.sourcesMonitored.Load()),
		ActiveHours: ActiveHours{
			Enabled:  s.config.ActiveHoursStart >= 0 && s.config.ActiveHoursEnd >= 0,
			Start:    s.config.ActiveHoursStart,
			End:      s.config.ActiveHoursEnd,
			Timezone: s.config.Location.String(),
		},
		CircuitBreakerStates: breakers,
		Metrics: Counters{
			CyclesCompleted: s.cyclesCompleted.Load(),
			CyclesSkipped:   s.cyclesSkipped.Load(),
			ChecksRun:       s.checksRun.Load(),
			ItemsDelivered:  s.itemsDelivered.Load(),
			FetchFailures:   s.fetchFailures.Load(),
		},
	}
}

// withinActiveHours reports whether a cycle may run at the given instant.
// A window with start > end wraps midnight. start == end falls under the
// wrap rule and covers the full day.
func (s *Service) withinActiveHours(now time.Time) bool {
	start, end := s.config.ActiveHoursStart, s.config.ActiveHoursEnd
	if start < 0 || end < 0 {
		return true
	}

	hour := now.In(s.config.Location).Hour()
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

func (s *Service) lockFor(handle string) *sync.Mutex {
	actual, _ := s.sourceLocks.LoadOrStore(handle, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// sleepBetweenSources pauses the worker for a randomized spacing delay, to
// keep source checks from hitting the upstream back to back.
func (s *Service) sleepBetweenSources(ctx context.Context) {
	span := s.config.SourceDelayMax - s.config.SourceDelayMin
	// #nosec G404 -- math/rand is fine for request spacing.
	delay := s.config.SourceDelayMin + time.Duration(rand.Int63n(int64(span)))
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

func (s *Service) pruneHistory(ctx context.Context) {
	pruned, err := s.history.PruneOlderThan(ctx, s.config.RetentionDays)
	if err != nil {
		s.logger.Error("history prune failed", slog.Any("error", err))
		return
	}
	if pruned > 0 {
		metrics.RecordHistoryPruned(pruned)
		s.logger.Info("history pruned",
			slog.Int64("records", pruned),
			slog.Int("retention_days", s.config.RetentionDays))
	}
}

func (s *Service) advanceMarker(ctx context.Context, src *entity.Source, itemID string, logger *slog.Logger) {
	if err := s.sources.UpdateLastItemID(ctx, src.ID, itemID); err != nil {
		logger.Error("failed to advance item marker",
			slog.String("item_id", itemID),
			slog.Any("error", err))
		return
	}
	src.LastItemID = &itemID
}

func (s *Service) touchCheckedAt(ctx context.Context, src *entity.Source, logger *slog.Logger) {
	if err := s.sources.TouchCheckedAt(ctx, src.ID); err != nil {
		logger.Error("failed to stamp check time", slog.Any("error", err))
	}
}
