package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/resilience/circuitbreaker"
	"github.com/hazy2go/instagram-discord-bot/internal/usecase/dedup"
)

// RSSBridgeStrategy fetches a profile's posts through an RSS-Bridge
// instance using the gofeed library. RSS-Bridge caches upstream responses,
// which makes this the most reliable strategy when Instagram rate-limits
// direct access.
type RSSBridgeStrategy struct {
	baseURL        string
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewRSSBridgeStrategy creates a strategy pointed at the given RSS-Bridge
// base URL (e.g. "https://rss-bridge.example.org").
func NewRSSBridgeStrategy(baseURL string, client *http.Client) *RSSBridgeStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSBridgeStrategy{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedBridgeConfig()),
	}
}

// Name implements fetch.Strategy.
func (s *RSSBridgeStrategy) Name() string { return "rss-bridge" }

// FetchLatest retrieves and parses the Atom feed RSS-Bridge generates for
// the profile. The upstream call runs through the strategy's circuit
// breaker; retries are the caller's concern.
func (s *RSSBridgeStrategy) FetchLatest(ctx context.Context, handle string) ([]entity.Item, error) {
	cbResult, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		return s.doFetch(ctx, handle)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("rss-bridge circuit breaker open, request rejected",
				slog.String("service", "rss-bridge"),
				slog.String("handle", handle),
				slog.String("state", s.circuitBreaker.State().String()))
		}
		return nil, err
	}

	return cbResult.([]entity.Item), nil
}

// doFetch performs the actual feed fetch without the circuit breaker.
func (s *RSSBridgeStrategy) doFetch(ctx context.Context, handle string) ([]entity.Item, error) {
	feedURL := s.feedURL(handle)

	fp := gofeed.NewParser()
	fp.UserAgent = "InstagramMonitorBot"
	fp.Client = s.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse bridge feed: %w", err)
	}

	items := make([]entity.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		var pubAt time.Time
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		}

		description := it.Content
		if description == "" {
			description = it.Description
		}

		id := dedup.ExtractItemID(it.Link)
		if id == "" {
			id = it.Link
		}

		var thumbnail string
		if it.Image != nil {
			thumbnail = it.Image.URL
		} else if len(it.Enclosures) > 0 {
			thumbnail = it.Enclosures[0].URL
		}

		items = append(items, entity.Item{
			ID:           id,
			URL:          it.Link,
			Title:        it.Title,
			Description:  description,
			PublishedAt:  pubAt,
			ThumbnailURL: thumbnail,
		})
	}

	return items, nil
}

// feedURL builds the RSS-Bridge display URL for a profile handle.
func (s *RSSBridgeStrategy) feedURL(handle string) string {
	params := url.Values{}
	params.Set("action", "display")
	params.Set("bridge", "Instagram")
	params.Set("context", "Username")
	params.Set("u", handle)
	params.Set("format", "Atom")
	return s.baseURL + "/?" + params.Encode()
}
