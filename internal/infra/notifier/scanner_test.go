package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestScanner(serverURL string) *ChannelScanner {
	s := NewChannelScanner("test-token", 5*time.Second)
	s.baseURL = serverURL
	return s
}

func TestChannelScanner_RecentMessages(t *testing.T) {
	t.Run("should return message contents newest first", func(t *testing.T) {
		var gotPath, gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path + "?" + r.URL.RawQuery
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `[
				{"content":"latest message","embeds":[]},
				{"content":"","embeds":[{"title":"New post","description":"caption","url":"https://www.instagram.com/p/Cxyz/"}]}
			]`)
		}))
		defer server.Close()

		scanner := newTestScanner(server.URL)
		msgs, err := scanner.RecentMessages(context.Background(), "12345", 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}
		if msgs[0] != "latest message" {
			t.Errorf("unexpected first message %q", msgs[0])
		}
		if !strings.Contains(msgs[1], "https://www.instagram.com/p/Cxyz/") {
			t.Errorf("embed url not folded into message text: %q", msgs[1])
		}
		if gotPath != "/channels/12345/messages?limit=4" {
			t.Errorf("unexpected request path %q", gotPath)
		}
		if gotAuth != "Bot test-token" {
			t.Errorf("unexpected authorization header %q", gotAuth)
		}
	})

	t.Run("should return ClientError on 403", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message":"Missing Access","code":50001}`)
		}))
		defer server.Close()

		scanner := newTestScanner(server.URL)
		_, err := scanner.RecentMessages(context.Background(), "12345", 4)

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			t.Fatalf("expected ClientError, got %v", err)
		}
		if clientErr.StatusCode != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", clientErr.StatusCode)
		}
	})

	t.Run("should return RateLimitError on 429", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message":"rate limited","retry_after":1.5}`)
		}))
		defer server.Close()

		scanner := newTestScanner(server.URL)
		_, err := scanner.RecentMessages(context.Background(), "12345", 4)

		var rateLimitErr *RateLimitError
		if !errors.As(err, &rateLimitErr) {
			t.Fatalf("expected RateLimitError, got %v", err)
		}
		if rateLimitErr.RetryAfter != 1500*time.Millisecond {
			t.Errorf("expected retry after 1.5s, got %v", rateLimitErr.RetryAfter)
		}
	})

	t.Run("should fail without bot token", func(t *testing.T) {
		scanner := NewChannelScanner("", 5*time.Second)

		_, err := scanner.RecentMessages(context.Background(), "12345", 4)

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			t.Fatalf("expected ClientError, got %v", err)
		}
	})

	t.Run("should clamp non-positive limit to 1", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			fmt.Fprint(w, `[]`)
		}))
		defer server.Close()

		scanner := newTestScanner(server.URL)
		if _, err := scanner.RecentMessages(context.Background(), "12345", 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotQuery != "limit=1" {
			t.Errorf("unexpected query %q", gotQuery)
		}
	})
}
