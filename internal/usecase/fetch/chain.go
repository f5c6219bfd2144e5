// Package fetch implements the fetch strategy chain: an ordered set of
// alternative methods for pulling the latest posts of a profile, with
// per-source memory of the last method that worked.
package fetch

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/observability/metrics"
	"github.com/hazy2go/instagram-discord-bot/internal/resilience/retry"
)

// Strategy is one concrete method of fetching the latest items for a
// profile handle. The chain is agnostic to how a strategy obtains data
// (RSS bridge, page scraping, REST call).
type Strategy interface {
	// Name identifies the strategy in logs, metrics and method memory.
	Name() string
	// FetchLatest returns the latest items for the handle, newest first.
	FetchLatest(ctx context.Context, handle string) ([]entity.Item, error)
}

// ChainConfig holds tuning for the chain.
type ChainConfig struct {
	// RetryConfigs maps a strategy name to its retry policy. Strategies
	// without an entry use retry.DefaultConfig().
	RetryConfigs map[string]retry.Config

	// InterStrategyDelay is slept between successive strategy attempts to
	// avoid bursting the upstream. Default: 500ms.
	InterStrategyDelay time.Duration
}

// Chain runs strategies in preference order and merges their results.
type Chain struct {
	strategies []Strategy
	memory     *methodMemory
	config     ChainConfig
}

// NewChain creates a chain over the given strategies. Order expresses
// preference: fastest and most real-time first, most degraded last.
func NewChain(strategies []Strategy, config ChainConfig) *Chain {
	if config.InterStrategyDelay <= 0 {
		config.InterStrategyDelay = 500 * time.Millisecond
	}
	return &Chain{
		strategies: strategies,
		memory:     newMethodMemory(),
		config:     config,
	}
}

// LastSuccessfulMethod reports the remembered method for a handle, if any.
func (c *Chain) LastSuccessfulMethod(handle string) (string, bool) {
	return c.memory.get(handle)
}

// FetchLatestItems attempts every strategy for the handle and merges the
// results, newest first. Each strategy is individually wrapped with retry;
// items with duplicate IDs across strategies are collapsed to one copy.
// When every strategy fails or returns nothing, ErrAllStrategiesFailed is
// returned so the caller can account a fetch failure.
func (c *Chain) FetchLatestItems(ctx context.Context, handle string) ([]entity.Item, error) {
	if len(c.strategies) == 0 {
		return nil, ErrNoStrategies
	}

	pooled := make([]entity.Item, 0, 16)
	seen := make(map[string]struct{})
	contributed := ""

	order := c.attemptOrder(handle)
	for i, strat := range order {
		if i > 0 {
			select {
			case <-time.After(c.config.InterStrategyDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		items, err := c.runStrategy(ctx, strat, handle)
		if err != nil {
			metrics.RecordStrategyFailure(strat.Name())
			slog.Warn("fetch strategy failed",
				slog.String("handle", handle),
				slog.String("strategy", strat.Name()),
				slog.Any("error", err))
			continue
		}
		if len(items) == 0 {
			metrics.RecordStrategyFailure(strat.Name())
			slog.Debug("fetch strategy returned no items",
				slog.String("handle", handle),
				slog.String("strategy", strat.Name()))
			continue
		}

		metrics.RecordStrategySuccess(strat.Name())
		if contributed == "" {
			contributed = strat.Name()
		}
		for _, item := range items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			pooled = append(pooled, item)
		}
	}

	if len(pooled) == 0 {
		return nil, ErrAllStrategiesFailed
	}

	sortNewestFirst(pooled)
	c.memory.set(handle, contributed)

	return pooled, nil
}

// attemptOrder hoists the remembered last-successful strategy to the front,
// preserving the static preference order for the remainder.
func (c *Chain) attemptOrder(handle string) []Strategy {
	remembered, ok := c.memory.get(handle)
	if !ok {
		return c.strategies
	}

	order := make([]Strategy, 0, len(c.strategies))
	for _, s := range c.strategies {
		if s.Name() == remembered {
			order = append(order, s)
			break
		}
	}
	if len(order) == 0 {
		// Remembered method no longer registered.
		return c.strategies
	}
	for _, s := range c.strategies {
		if s.Name() != remembered {
			order = append(order, s)
		}
	}
	return order
}

func (c *Chain) runStrategy(ctx context.Context, strat Strategy, handle string) ([]entity.Item, error) {
	cfg, ok := c.config.RetryConfigs[strat.Name()]
	if !ok {
		cfg = retry.DefaultConfig()
	}

	var items []entity.Item
	err := retry.WithBackoff(ctx, cfg, func() error {
		var ferr error
		items, ferr = strat.FetchLatest(ctx, handle)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// sortNewestFirst orders items by PublishedAt descending. Items lacking a
// timestamp sort last and keep their relative order.
func sortNewestFirst(items []entity.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].PublishedAt, items[j].PublishedAt
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.After(tj)
	})
}
