package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const bridgeAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>natgeo - Instagram Bridge</title>
  <entry>
    <title>Lions at dawn</title>
    <link href="https://www.instagram.com/p/Cnewest111/"/>
    <id>https://www.instagram.com/p/Cnewest111/</id>
    <updated>2026-08-15T12:00:00Z</updated>
    <published>2026-08-15T12:00:00Z</published>
    <content type="html">A pride of lions photographed at dawn.</content>
  </entry>
  <entry>
    <title>Reef life</title>
    <link href="https://www.instagram.com/p/Colder222/"/>
    <id>https://www.instagram.com/p/Colder222/</id>
    <updated>2026-08-14T09:30:00Z</updated>
    <published>2026-08-14T09:30:00Z</published>
    <content type="html">Coral reef macro shots.</content>
  </entry>
</feed>`

func TestRSSBridgeStrategy_FetchLatest(t *testing.T) {
	t.Run("should parse bridge feed into items", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprint(w, bridgeAtomFeed)
		}))
		defer server.Close()

		strategy := NewRSSBridgeStrategy(server.URL, server.Client())

		items, err := strategy.FetchLatest(context.Background(), "natgeo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}

		first := items[0]
		if first.ID != "Cnewest111" {
			t.Errorf("expected shortcode id, got %q", first.ID)
		}
		if first.URL != "https://www.instagram.com/p/Cnewest111/" {
			t.Errorf("unexpected url %q", first.URL)
		}
		if first.Title != "Lions at dawn" {
			t.Errorf("unexpected title %q", first.Title)
		}
		if first.Description == "" {
			t.Errorf("expected content to be carried into description")
		}
		want := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
		if !first.PublishedAt.Equal(want) {
			t.Errorf("expected published at %v, got %v", want, first.PublishedAt)
		}

		for _, param := range []string{"bridge=Instagram", "u=natgeo", "format=Atom"} {
			if !containsParam(gotQuery, param) {
				t.Errorf("query %q missing %q", gotQuery, param)
			}
		}
	})

	t.Run("should return error on upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		strategy := NewRSSBridgeStrategy(server.URL, server.Client())

		if _, err := strategy.FetchLatest(context.Background(), "natgeo"); err == nil {
			t.Fatalf("expected error for 502 response")
		}
	})

	t.Run("should name itself rss-bridge", func(t *testing.T) {
		strategy := NewRSSBridgeStrategy("http://127.0.0.1:39999", nil)
		if strategy.Name() != "rss-bridge" {
			t.Errorf("unexpected name %q", strategy.Name())
		}
	})
}

func containsParam(query, param string) bool {
	for _, part := range splitQuery(query) {
		if part == param {
			return true
		}
	}
	return false
}

func splitQuery(query string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(query); i++ {
		if i == len(query) || query[i] == '&' {
			parts = append(parts, query[start:i])
			start = i + 1
		}
	}
	return parts
}
