// Package entity defines the core domain entities for the monitoring engine.
// It contains the fundamental business objects such as Source, Item and
// HistoryRecord, along with their validation rules and domain-specific errors.
package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source represents a monitored Instagram profile.
// LastItemID and LastCheckedAt are mutated only by the monitoring engine
// after each check. A source is deactivated, never deleted, when no
// destinations remain for it.
type Source struct {
	ID            int64
	Handle        string
	LastItemID    *string
	LastCheckedAt *time.Time
	Active        bool
}

// Validate validates the Source entity fields.
func (s *Source) Validate() error {
	if s.Handle == "" {
		return errors.New("source handle must not be empty")
	}
	if strings.ContainsAny(s.Handle, " /?#") {
		return fmt.Errorf("invalid source handle: %q", s.Handle)
	}
	return nil
}

// Destination is a Discord channel subscribed to a source.
// ChannelID is the channel snowflake used for the recency scan;
// WebhookURL is where notifications are posted.
type Destination struct {
	ID         int64
	SourceID   int64
	ChannelID  string
	WebhookURL string
}
