package notifier

import (
	"context"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when notifications are disabled to avoid null checks in the code.
// This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Name implements the Notifier interface.
func (n *NoOpNotifier) Name() string { return "noop" }

// Send does nothing and returns nil immediately.
// This allows delivery to be disabled without changing the code flow.
func (n *NoOpNotifier) Send(ctx context.Context, dest *entity.Destination, item *entity.Item, source *entity.Source) error {
	// No-op: intentionally does nothing
	return nil
}
