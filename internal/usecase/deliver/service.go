// Package deliver dispatches new-item notifications to a source's
// subscribed destinations and reports per-destination outcomes.
//
// Delivery failures are reported back to the caller but never interpreted
// by it beyond logging and metrics. The monitoring engine records history
// and advances markers regardless of delivery outcome, so a destination
// outage cannot make the engine re-notify the same item forever.
package deliver

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/observability/metrics"
	"github.com/hazy2go/instagram-discord-bot/internal/pkg/requestid"
)

// deliveryTimeout bounds one destination's send, including its retries.
const deliveryTimeout = 30 * time.Second

// Notifier sends a single notification to a single destination.
// Implementations handle their own rate limiting and retries and must be
// safe for concurrent use.
type Notifier interface {
	// Name returns the channel identifier (e.g. "discord") for logging
	// and metrics.
	Name() string

	// Send posts the item to the destination. It must respect context
	// cancellation and return a non-nil error once retries are exhausted.
	Send(ctx context.Context, dest *entity.Destination, item *entity.Item, source *entity.Source) error
}

// Result is the outcome of delivering one item to one destination.
type Result struct {
	DestinationID int64
	Success       bool
	Err           error
}

// Service fans an item out to all destinations of a source and waits for
// every send to finish.
type Service struct {
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService creates a delivery service backed by the given notifier.
func NewService(notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		notifier: notifier,
		timeout:  deliveryTimeout,
		logger:   logger,
	}
}

// Deliver sends item to every destination concurrently and returns one
// Result per destination, in destination order. It never returns an error:
// per-destination failures are captured in the results.
func (s *Service) Deliver(ctx context.Context, item *entity.Item, source *entity.Source, destinations []*entity.Destination) []Result {
	if item == nil || source == nil {
		s.logger.Warn("invalid delivery input",
			slog.Bool("nil_item", item == nil),
			slog.Bool("nil_source", source == nil))
		return nil
	}
	if len(destinations) == 0 {
		s.logger.Debug("no destinations subscribed",
			slog.String("source", source.Handle),
			slog.String("item_id", item.ID))
		return nil
	}

	// Inherit the request ID from the caller if present.
	requestID := requestid.FromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	s.logger.Info("dispatching item notification",
		slog.String("request_id", requestID),
		slog.String("source", source.Handle),
		slog.String("item_id", item.ID),
		slog.String("url", item.URL),
		slog.Int("destinations", len(destinations)))

	results := make([]Result, len(destinations))
	var wg sync.WaitGroup
	for i, dest := range destinations {
		wg.Add(1)
		go func(i int, dest *entity.Destination) {
			defer wg.Done()
			results[i] = s.sendOne(ctx, requestID, dest, item, source)
		}(i, dest)
	}
	wg.Wait()

	for _, r := range results {
		metrics.RecordDelivery(r.Success)
	}
	return results
}

// sendOne delivers to a single destination with its own timeout and panic
// recovery so one misbehaving destination cannot take down the cycle.
func (s *Service) sendOne(ctx context.Context, requestID string, dest *entity.Destination, item *entity.Item, source *entity.Source) (result Result) {
	result = Result{DestinationID: dest.ID}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during delivery",
				slog.String("request_id", requestID),
				slog.Int64("destination_id", dest.ID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			result.Success = false
			result.Err = ErrDeliveryPanic
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	sendCtx = requestid.WithRequestID(sendCtx, requestID)

	start := time.Now()
	err := s.notifier.Send(sendCtx, dest, item, source)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("delivery failed",
			slog.String("request_id", requestID),
			slog.String("channel", s.notifier.Name()),
			slog.Int64("destination_id", dest.ID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		result.Err = err
		return result
	}

	s.logger.Info("delivery succeeded",
		slog.String("request_id", requestID),
		slog.String("channel", s.notifier.Name()),
		slog.Int64("destination_id", dest.ID),
		slog.Duration("duration", duration))
	result.Success = true
	return result
}
