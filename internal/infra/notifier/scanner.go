package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const discordAPIBase = "https://discord.com/api/v10"

// ChannelScanner reads recent messages from Discord channels through the
// bot API. The duplicate detector uses it as a best-effort safety net for
// posts made outside the engine.
type ChannelScanner struct {
	botToken    string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewChannelScanner creates a scanner authenticated with the given bot token.
func NewChannelScanner(botToken string, timeout time.Duration) *ChannelScanner {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChannelScanner{
		botToken: botToken,
		baseURL:  discordAPIBase,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: NewRateLimiter(1, 2), // bot API reads are cheap but still capped
	}
}

// discordMessage is the subset of the Discord message object the scanner needs.
type discordMessage struct {
	Content string `json:"content"`
	Embeds  []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"embeds"`
}

// RecentMessages returns the text of the last limit messages in a channel,
// newest first. Embed titles, descriptions, and URLs are folded into each
// message's text so URL matching sees webhook-posted embeds too.
func (s *ChannelScanner) RecentMessages(ctx context.Context, channelID string, limit int) ([]string, error) {
	if s.botToken == "" {
		return nil, &ClientError{
			StatusCode: http.StatusUnauthorized,
			Message:    "channel scanner has no bot token",
		}
	}
	if limit <= 0 {
		limit = 1
	}

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/messages?limit=%d", s.baseURL, channelID, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := extractRetryAfter(resp, body)
		return nil, &RateLimitError{
			Message:    "Discord rate limit exceeded",
			RetryAfter: retryAfter,
		}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API client error: %s", string(body)),
		}
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API server error: %s", string(body)),
		}
	}

	var messages []discordMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("decode channel messages: %w", err)
	}

	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts := []string{msg.Content}
		for _, embed := range msg.Embeds {
			parts = append(parts, embed.Title, embed.Description, embed.URL)
		}
		texts = append(texts, strings.Join(parts, "\n"))
	}

	slog.Debug("scanned recent channel messages",
		slog.String("channel_id", channelID),
		slog.Int("count", len(texts)))
	return texts, nil
}
