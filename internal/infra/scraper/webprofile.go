package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/resilience/circuitbreaker"
)

const defaultProfileBaseURL = "https://www.instagram.com"

// WebProfileStrategy scrapes a profile page directly. It extracts the
// embedded shared-data JSON from the page's script tags and parses the
// timeline media out of it. Fast and real-time, but the first strategy
// Instagram throttles.
type WebProfileStrategy struct {
	baseURL        string
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewWebProfileStrategy creates a strategy scraping instagram.com profile pages.
func NewWebProfileStrategy(client *http.Client) *WebProfileStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &WebProfileStrategy{
		baseURL:        defaultProfileBaseURL,
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ProfileScrapeConfig()),
	}
}

// Name implements fetch.Strategy.
func (w *WebProfileStrategy) Name() string { return "web-profile" }

// FetchLatest scrapes the profile page and returns its visible timeline
// posts. The upstream call runs through the strategy's circuit breaker;
// retries are the caller's concern.
func (w *WebProfileStrategy) FetchLatest(ctx context.Context, handle string) ([]entity.Item, error) {
	cbResult, err := w.circuitBreaker.Execute(func() (interface{}, error) {
		return w.doFetch(ctx, handle)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("profile scrape circuit breaker open, request rejected",
				slog.String("service", "profile-scrape"),
				slog.String("handle", handle),
				slog.String("state", w.circuitBreaker.State().String()))
		}
		return nil, err
	}

	return cbResult.([]entity.Item), nil
}

// doFetch performs the actual scraping without the circuit breaker.
func (w *WebProfileStrategy) doFetch(ctx context.Context, handle string) ([]entity.Item, error) {
	profileURL := fmt.Sprintf("%s/%s/", w.baseURL, handle)

	if err := validateURL(profileURL); err != nil {
		return nil, fmt.Errorf("URL validation failed: %w", err)
	}

	html, err := w.fetchHTML(ctx, profileURL)
	if err != nil {
		return nil, fmt.Errorf("fetch HTML failed: %w", err)
	}

	jsonData, err := w.extractJSON(html)
	if err != nil {
		return nil, fmt.Errorf("extract JSON failed: %w", err)
	}

	items, err := w.parseItems(jsonData)
	if err != nil {
		return nil, fmt.Errorf("parse items failed: %w", err)
	}

	if len(items) == 0 {
		return nil, errors.New("no posts found in profile data")
	}

	return items, nil
}

// fetchHTML fetches the profile page HTML.
func (w *WebProfileStrategy) fetchHTML(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	return fetchBody(w.client, req)
}

// extractJSON finds the shared-data script tag and parses the embedded JSON.
func (w *WebProfileStrategy) extractJSON(html string) (map[string]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	const marker = "window._sharedData"

	var jsonText string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, marker) {
			return true
		}
		// Strip "window._sharedData = " prefix and trailing semicolon
		if idx := strings.Index(text, "="); idx >= 0 {
			jsonText = strings.TrimSuffix(strings.TrimSpace(text[idx+1:]), ";")
		}
		return false
	})

	if jsonText == "" {
		return nil, errors.New("shared data script tag not found")
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &data); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	return data, nil
}

// parseItems walks the shared-data structure down to the profile's
// timeline media and converts each edge to an item.
func (w *WebProfileStrategy) parseItems(jsonData map[string]interface{}) ([]entity.Item, error) {
	entryData, ok := jsonData["entry_data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("entry_data not found in JSON")
	}

	profilePages, ok := entryData["ProfilePage"].([]interface{})
	if !ok || len(profilePages) == 0 {
		return nil, errors.New("ProfilePage not found in entry_data")
	}

	page, ok := profilePages[0].(map[string]interface{})
	if !ok {
		return nil, errors.New("ProfilePage entry is not an object")
	}

	graphql, ok := page["graphql"].(map[string]interface{})
	if !ok {
		return nil, errors.New("graphql not found in ProfilePage")
	}

	user, ok := graphql["user"].(map[string]interface{})
	if !ok {
		return nil, errors.New("user not found in graphql")
	}

	media, ok := user["edge_owner_to_timeline_media"].(map[string]interface{})
	if !ok {
		return nil, errors.New("timeline media not found in user")
	}

	edges, ok := media["edges"].([]interface{})
	if !ok {
		return nil, errors.New("edges array not found in timeline media")
	}

	var items []entity.Item
	for i, edgeData := range edges {
		edge, ok := edgeData.(map[string]interface{})
		if !ok {
			slog.Warn("skipping non-object edge", slog.Int("index", i))
			continue
		}
		node, ok := edge["node"].(map[string]interface{})
		if !ok {
			slog.Warn("skipping edge without node", slog.Int("index", i))
			continue
		}

		shortcode, _ := node["shortcode"].(string)
		if shortcode == "" {
			slog.Debug("skipping node with empty shortcode", slog.Int("index", i))
			continue
		}

		var publishedAt time.Time
		if ts, ok := node["taken_at_timestamp"].(float64); ok && ts > 0 {
			publishedAt = time.Unix(int64(ts), 0).UTC()
		}

		caption := extractCaption(node)
		thumbnail, _ := node["display_url"].(string)

		items = append(items, entity.Item{
			ID:           shortcode,
			URL:          fmt.Sprintf("%s/p/%s/", defaultProfileBaseURL, shortcode),
			Title:        firstLine(caption),
			Description:  caption,
			PublishedAt:  publishedAt,
			ThumbnailURL: thumbnail,
		})
	}

	return items, nil
}

// extractCaption pulls the caption text out of a timeline media node.
func extractCaption(node map[string]interface{}) string {
	captionEdge, ok := node["edge_media_to_caption"].(map[string]interface{})
	if !ok {
		return ""
	}
	edges, ok := captionEdge["edges"].([]interface{})
	if !ok || len(edges) == 0 {
		return ""
	}
	first, ok := edges[0].(map[string]interface{})
	if !ok {
		return ""
	}
	captionNode, ok := first["node"].(map[string]interface{})
	if !ok {
		return ""
	}
	text, _ := captionNode["text"].(string)
	return text
}

// firstLine returns the first line of a caption for use as an embed title.
func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
