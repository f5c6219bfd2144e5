// Package notifier provides Discord delivery for new-item notifications.
//
// The webhook notifier posts rich embeds to per-destination webhook URLs.
// The channel scanner reads recent channel messages through the bot API so
// the duplicate detector can catch posts made outside the engine.
package notifier

import (
	"context"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
)

// Notifier is an interface for sending item notifications to a destination.
// Implementations should handle rate limiting, retries, and error logging internally.
type Notifier interface {
	// Name returns the channel identifier for logging and metrics.
	Name() string

	// Send posts a notification about a newly observed item to the destination.
	//
	// Implementations should:
	//   - Apply rate limiting to prevent API abuse
	//   - Retry transient failures with exponential backoff
	//   - Log all attempts with the request ID from the context
	//   - Respect context cancellation
	Send(ctx context.Context, dest *entity.Destination, item *entity.Item, source *entity.Source) error
}
