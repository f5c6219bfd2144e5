package repository

import "context"

// HistoryRepository is the durable notification history contract.
// A record must be written once an item has been handed to delivery,
// regardless of per-destination delivery outcome.
type HistoryRepository interface {
	HasBeenNotified(ctx context.Context, sourceID int64, itemID string) (bool, error)
	RecordNotified(ctx context.Context, sourceID int64, itemID, url string) error
	// PruneOlderThan deletes records older than the retention window.
	// Called once per monitoring cycle.
	PruneOlderThan(ctx context.Context, retentionDays int) (int64, error)
}
