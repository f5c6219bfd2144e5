package entity

import "time"

// HistoryRecord is the durable record that an item was handed to delivery.
// It is unique per (SourceID, ItemID) and exists to prevent re-notification
// across process restarts.
type HistoryRecord struct {
	SourceID   int64
	ItemID     string
	URL        string
	NotifiedAt time.Time
}
