package dedup

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
)

type fakeHistory struct {
	notified map[string]bool
	err      error
	lookups  int
}

func (f *fakeHistory) HasBeenNotified(_ context.Context, sourceID int64, itemID string) (bool, error) {
	f.lookups++
	if f.err != nil {
		return false, f.err
	}
	return f.notified[itemID], nil
}

func (f *fakeHistory) RecordNotified(_ context.Context, _ int64, _, _ string) error { return nil }

func (f *fakeHistory) PruneOlderThan(_ context.Context, _ int) (int64, error) { return 0, nil }

type fakeScanner struct {
	messages map[string][]string
	err      error
	scans    int
	depths   []int
}

func (f *fakeScanner) RecentMessages(_ context.Context, channelID string, limit int) ([]string, error) {
	f.scans++
	f.depths = append(f.depths, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.messages[channelID], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExtractItemID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"post url", "https://www.instagram.com/p/Cxyz123abcd/", "Cxyz123abcd"},
		{"reel url", "https://www.instagram.com/reel/DEf456/", "DEf456"},
		{"igtv url", "https://www.instagram.com/tv/GHi789/", "GHi789"},
		{"no trailing slash", "https://www.instagram.com/p/Cxyz123abcd", "Cxyz123abcd"},
		{"with query params", "https://www.instagram.com/p/Cxyz123abcd/?utm_source=rss", "Cxyz123abcd"},
		{"with fragment", "https://www.instagram.com/reel/DEf456#comments", "DEf456"},
		{"profile url has no id", "https://www.instagram.com/natgeo/", ""},
		{"empty url", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractItemID(tt.url))
		})
	}
}

func TestDetector_HistoryHit(t *testing.T) {
	history := &fakeHistory{notified: map[string]bool{"Cxyz123abcd": true}}
	scanner := &fakeScanner{}
	d := NewDetector(history, scanner, 4, discardLogger())

	got := d.IsAlreadyNotified(context.Background(), 1, "https://www.instagram.com/p/Cxyz123abcd/", nil)

	assert.True(t, got)
	assert.Equal(t, 0, scanner.scans, "history hit must short-circuit the recency scan")
}

func TestDetector_ScanHit(t *testing.T) {
	history := &fakeHistory{notified: map[string]bool{}}

	t.Run("matches literal url", func(t *testing.T) {
		scanner := &fakeScanner{messages: map[string][]string{
			"chan-1": {"unrelated", "check this out https://www.instagram.com/p/Cxyz123abcd/"},
		}}
		d := NewDetector(history, scanner, 4, discardLogger())

		got := d.IsAlreadyNotified(context.Background(), 1,
			"https://www.instagram.com/p/Cxyz123abcd/",
			[]*entity.Destination{{ID: 1, SourceID: 1, ChannelID: "chan-1"}})

		assert.True(t, got)
	})

	t.Run("matches extracted id", func(t *testing.T) {
		scanner := &fakeScanner{messages: map[string][]string{
			"chan-1": {"reposted earlier: Cxyz123abcd"},
		}}
		d := NewDetector(history, scanner, 4, discardLogger())

		got := d.IsAlreadyNotified(context.Background(), 1,
			"https://www.instagram.com/p/Cxyz123abcd/",
			[]*entity.Destination{{ID: 1, SourceID: 1, ChannelID: "chan-1"}})

		assert.True(t, got)
	})
}

func TestDetector_NoMatch(t *testing.T) {
	history := &fakeHistory{notified: map[string]bool{}}
	scanner := &fakeScanner{messages: map[string][]string{
		"chan-1": {"something else entirely"},
	}}
	d := NewDetector(history, scanner, 4, discardLogger())

	got := d.IsAlreadyNotified(context.Background(), 1,
		"https://www.instagram.com/p/Cnew999/",
		[]*entity.Destination{{ID: 1, SourceID: 1, ChannelID: "chan-1"}})

	assert.False(t, got)
}

func TestDetector_FailsOpen(t *testing.T) {
	t.Run("history error", func(t *testing.T) {
		history := &fakeHistory{err: errors.New("db down")}
		d := NewDetector(history, nil, 4, discardLogger())

		got := d.IsAlreadyNotified(context.Background(), 1, "https://www.instagram.com/p/Cxyz/", nil)

		assert.False(t, got)
	})

	t.Run("scanner error", func(t *testing.T) {
		history := &fakeHistory{notified: map[string]bool{}}
		scanner := &fakeScanner{err: errors.New("discord 502")}
		d := NewDetector(history, scanner, 4, discardLogger())

		got := d.IsAlreadyNotified(context.Background(), 1,
			"https://www.instagram.com/p/Cxyz/",
			[]*entity.Destination{{ID: 1, SourceID: 1, ChannelID: "chan-1"}})

		assert.False(t, got)
		assert.Equal(t, 1, scanner.scans)
	})
}

func TestDetector_ScanDepth(t *testing.T) {
	history := &fakeHistory{notified: map[string]bool{}}
	scanner := &fakeScanner{messages: map[string][]string{}}
	d := NewDetector(history, scanner, 0, discardLogger())

	d.IsAlreadyNotified(context.Background(), 1,
		"https://www.instagram.com/p/Cxyz/",
		[]*entity.Destination{{ID: 1, SourceID: 1, ChannelID: "chan-1"}})

	assert.Equal(t, []int{DefaultScanDepth}, scanner.depths)
}

func TestDetector_SkipsDestinationsWithoutChannel(t *testing.T) {
	history := &fakeHistory{notified: map[string]bool{}}
	scanner := &fakeScanner{messages: map[string][]string{}}
	d := NewDetector(history, scanner, 4, discardLogger())

	d.IsAlreadyNotified(context.Background(), 1,
		"https://www.instagram.com/p/Cxyz/",
		[]*entity.Destination{
			{ID: 1, SourceID: 1, WebhookURL: "https://discord.com/api/webhooks/1/x"},
			{ID: 2, SourceID: 1, ChannelID: "chan-2"},
		})

	assert.Equal(t, 1, scanner.scans)
}

func TestDetector_NilScanner(t *testing.T) {
	history := &fakeHistory{notified: map[string]bool{}}
	d := NewDetector(history, nil, 4, discardLogger())

	got := d.IsAlreadyNotified(context.Background(), 1,
		"https://www.instagram.com/p/Cxyz/",
		[]*entity.Destination{{ID: 1, SourceID: 1, ChannelID: "chan-1"}})

	assert.False(t, got)
}
