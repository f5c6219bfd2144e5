// Package dedup decides whether an observed item has already been reported.
//
// The detector layers an authoritative persisted-history lookup with a
// best-effort scan of each destination channel's recent messages. The scan
// catches posts made manually or by other tooling that bypassed the engine.
package dedup

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/repository"
)

// DefaultScanDepth is how many recent destination messages layer 2 inspects.
const DefaultScanDepth = 4

// MessageScanner reads the most recent message contents of a destination
// channel. Implementations live in the notifier infrastructure.
type MessageScanner interface {
	RecentMessages(ctx context.Context, channelID string, limit int) ([]string, error)
}

// Detector checks whether an item has already been notified for a source.
type Detector struct {
	history   repository.HistoryRepository
	scanner   MessageScanner
	scanDepth int
	logger    *slog.Logger
}

// NewDetector creates a Detector. scanner may be nil, in which case the
// recency-scan layer is skipped. A non-positive scanDepth falls back to
// DefaultScanDepth.
func NewDetector(history repository.HistoryRepository, scanner MessageScanner, scanDepth int, logger *slog.Logger) *Detector {
	if scanDepth <= 0 {
		scanDepth = DefaultScanDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		history:   history,
		scanner:   scanner,
		scanDepth: scanDepth,
		logger:    logger,
	}
}

// IsAlreadyNotified reports whether the item at itemURL has already been
// delivered for the given source. Errors in either layer are treated as
// "not a duplicate": an occasional repeated notification is preferable to
// silently dropping a real one.
func (d *Detector) IsAlreadyNotified(ctx context.Context, sourceID int64, itemURL string, destinations []*entity.Destination) bool {
	itemID := ExtractItemID(itemURL)

	// Layer 1: persisted history is authoritative.
	if itemID != "" {
		notified, err := d.history.HasBeenNotified(ctx, sourceID, itemID)
		if err != nil {
			d.logger.Warn("history lookup failed, treating as new",
				slog.Int64("source_id", sourceID),
				slog.String("item_id", itemID),
				slog.Any("error", err))
		} else if notified {
			return true
		}
	}

	// Layer 2: scan recent destination messages for the URL or id.
	if d.scanner == nil {
		return false
	}
	for _, dest := range destinations {
		if dest.ChannelID == "" {
			continue
		}
		msgs, err := d.scanner.RecentMessages(ctx, dest.ChannelID, d.scanDepth)
		if err != nil {
			d.logger.Warn("recency scan failed, treating as new",
				slog.Int64("source_id", sourceID),
				slog.String("channel_id", dest.ChannelID),
				slog.Any("error", err))
			continue
		}
		for _, msg := range msgs {
			if strings.Contains(msg, itemURL) || (itemID != "" && strings.Contains(msg, itemID)) {
				d.logger.Info("duplicate found in recent channel messages",
					slog.Int64("source_id", sourceID),
					slog.String("channel_id", dest.ChannelID),
					slog.String("item_id", itemID))
				return true
			}
		}
	}
	return false
}

// ExtractItemID pulls the post shortcode out of an item URL. Both regular
// post and reel paths are recognized. Returns "" when the URL carries no
// recognizable id, in which case callers fall back to URL matching.
func ExtractItemID(itemURL string) string {
	for _, marker := range []string{"/p/", "/reel/", "/tv/"} {
		idx := strings.Index(itemURL, marker)
		if idx < 0 {
			continue
		}
		rest := strings.TrimPrefix(itemURL[idx:], marker)
		if end := strings.IndexAny(rest, "/?#"); end >= 0 {
			rest = rest[:end]
		}
		if rest != "" {
			return rest
		}
	}
	return ""
}
