package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/pkg/requestid"
)

func testDiscordItem() *entity.Item {
	return &entity.Item{
		ID:          "Cxyz123abcd",
		URL:         "https://www.instagram.com/p/Cxyz123abcd/",
		Title:       "New post from @natgeo",
		Description: "A photo essay from the Serengeti.",
		PublishedAt: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
	}
}

func testDiscordSource() *entity.Source {
	return &entity.Source{ID: 1, Handle: "natgeo", Active: true}
}

func TestDiscordNotifier_buildEmbedPayload(t *testing.T) {
	t.Run("should build valid embed with all fields", func(t *testing.T) {
		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 10 * time.Second})
		item := testDiscordItem()
		item.ThumbnailURL = "https://cdn.example.com/thumb.jpg"
		source := testDiscordSource()

		payload := notifier.buildEmbedPayload(item, source)

		if len(payload.Embeds) != 1 {
			t.Fatalf("expected 1 embed, got %d", len(payload.Embeds))
		}

		embed := payload.Embeds[0]
		if embed.Title != item.Title {
			t.Errorf("expected title=%q, got %q", item.Title, embed.Title)
		}
		if embed.Description != item.Description {
			t.Errorf("expected description=%q, got %q", item.Description, embed.Description)
		}
		if embed.URL != item.URL {
			t.Errorf("expected url=%q, got %q", item.URL, embed.URL)
		}
		if embed.Color != instagramPurpleColor {
			t.Errorf("expected color=%d, got %d", instagramPurpleColor, embed.Color)
		}
		if embed.Footer.Text != "@natgeo" {
			t.Errorf("expected footer=%q, got %q", "@natgeo", embed.Footer.Text)
		}
		expectedTimestamp := item.PublishedAt.Format(time.RFC3339)
		if embed.Timestamp != expectedTimestamp {
			t.Errorf("expected timestamp=%q, got %q", expectedTimestamp, embed.Timestamp)
		}
		if embed.Image == nil || embed.Image.URL != item.ThumbnailURL {
			t.Errorf("expected image url=%q, got %+v", item.ThumbnailURL, embed.Image)
		}
	})

	t.Run("should truncate long description with suffix", func(t *testing.T) {
		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 10 * time.Second})
		item := testDiscordItem()
		item.Description = strings.Repeat("a", 5000)

		payload := notifier.buildEmbedPayload(item, testDiscordSource())

		embed := payload.Embeds[0]
		if len(embed.Description) != maxDescriptionLength {
			t.Errorf("expected description length=%d, got %d", maxDescriptionLength, len(embed.Description))
		}
		if !strings.HasSuffix(embed.Description, truncationSuffix) {
			t.Errorf("expected description to end with %q", truncationSuffix)
		}
	})

	t.Run("should truncate long title", func(t *testing.T) {
		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 10 * time.Second})
		item := testDiscordItem()
		item.Title = strings.Repeat("t", 300)

		payload := notifier.buildEmbedPayload(item, testDiscordSource())

		if len(payload.Embeds[0].Title) != maxTitleLength {
			t.Errorf("expected title length=%d, got %d", maxTitleLength, len(payload.Embeds[0].Title))
		}
	})

	t.Run("should synthesize title when item has none", func(t *testing.T) {
		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 10 * time.Second})
		item := testDiscordItem()
		item.Title = ""

		payload := notifier.buildEmbedPayload(item, testDiscordSource())

		if payload.Embeds[0].Title != "New post from @natgeo" {
			t.Errorf("unexpected synthesized title %q", payload.Embeds[0].Title)
		}
	})

	t.Run("should omit timestamp and image when unknown", func(t *testing.T) {
		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 10 * time.Second})
		item := testDiscordItem()
		item.PublishedAt = time.Time{}
		item.ThumbnailURL = ""

		payload := notifier.buildEmbedPayload(item, testDiscordSource())

		embed := payload.Embeds[0]
		if embed.Timestamp != "" {
			t.Errorf("expected empty timestamp, got %q", embed.Timestamp)
		}
		if embed.Image != nil {
			t.Errorf("expected nil image, got %+v", embed.Image)
		}
	})
}

func TestDiscordNotifier_Send(t *testing.T) {
	t.Run("should succeed on 204 response", func(t *testing.T) {
		var gotPayload DiscordWebhookPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotPayload)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 5 * time.Second})
		dest := &entity.Destination{ID: 10, SourceID: 1, WebhookURL: server.URL}

		err := notifier.Send(context.Background(), dest, testDiscordItem(), testDiscordSource())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(gotPayload.Embeds) != 1 {
			t.Fatalf("expected server to receive 1 embed, got %d", len(gotPayload.Embeds))
		}
	})

	t.Run("should not retry 4xx client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Unknown Webhook","code":10015}`)
		}))
		defer server.Close()

		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 5 * time.Second})
		dest := &entity.Destination{ID: 10, SourceID: 1, WebhookURL: server.URL}

		err := notifier.Send(context.Background(), dest, testDiscordItem(), testDiscordSource())

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			t.Fatalf("expected ClientError, got %v", err)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("expected 1 attempt, got %d", got)
		}
	})

	t.Run("should retry 429 using retry_after from body", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"message":"rate limited","retry_after":0.01}`)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 5 * time.Second})
		dest := &entity.Destination{ID: 10, SourceID: 1, WebhookURL: server.URL}

		err := notifier.Send(context.Background(), dest, testDiscordItem(), testDiscordSource())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := calls.Load(); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
	})

	t.Run("should fail when destination has no webhook URL", func(t *testing.T) {
		notifier := NewDiscordNotifier(DiscordConfig{Timeout: 5 * time.Second})
		dest := &entity.Destination{ID: 10, SourceID: 1}

		err := notifier.Send(context.Background(), dest, testDiscordItem(), testDiscordSource())

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			t.Fatalf("expected ClientError, got %v", err)
		}
	})
}

func TestExtractRetryAfter(t *testing.T) {
	t.Run("should parse retry_after from JSON body", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		body := []byte(`{"message":"rate limited","retry_after":2.5}`)

		got := extractRetryAfter(resp, body)
		if got != 2500*time.Millisecond {
			t.Errorf("expected 2.5s, got %v", got)
		}
	})

	t.Run("should fall back to Retry-After header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}

		got := extractRetryAfter(resp, []byte("not json"))
		if got != 7*time.Second {
			t.Errorf("expected 7s, got %v", got)
		}
	})

	t.Run("should default to 5s", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}

		got := extractRetryAfter(resp, nil)
		if got != 5*time.Second {
			t.Errorf("expected 5s, got %v", got)
		}
	})
}

func TestDiscordNotifier_SendInheritsCallerRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var logBuf strings.Builder
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logBuf, nil)))
	defer slog.SetDefault(prev)

	notifier := NewDiscordNotifier(DiscordConfig{Timeout: 5 * time.Second})
	dest := &entity.Destination{ID: 10, SourceID: 1, WebhookURL: server.URL}

	ctx := requestid.WithRequestID(context.Background(), "req-trace-42")
	if err := notifier.Send(ctx, dest, testDiscordItem(), testDiscordSource()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(logBuf.String(), "req-trace-42") {
		t.Errorf("expected logs to carry the caller's request ID, got: %s", logBuf.String())
	}
}
