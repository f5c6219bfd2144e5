// Package repository declares the persistence contracts used by the
// monitoring engine. Concrete adapters live under internal/infra/adapter.
package repository

import (
	"context"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
)

// SourceRepository is the subscription registry contract.
type SourceRepository interface {
	// ListActive returns all sources currently flagged active.
	ListActive(ctx context.Context) ([]*entity.Source, error)
	// GetByHandle returns the source for a profile handle, or nil if none exists.
	GetByHandle(ctx context.Context, handle string) (*entity.Source, error)
	Create(ctx context.Context, source *entity.Source) error
	SetActive(ctx context.Context, id int64, active bool) error
	// UpdateLastItemID advances the last-known-item marker for a source.
	UpdateLastItemID(ctx context.Context, id int64, itemID string) error
	// TouchCheckedAt stamps the time of the most recent completed check.
	TouchCheckedAt(ctx context.Context, id int64) error
}

// DestinationRepository maps sources to their subscribed Discord channels.
type DestinationRepository interface {
	ListForSource(ctx context.Context, sourceID int64) ([]*entity.Destination, error)
	Add(ctx context.Context, dest *entity.Destination) error
	Remove(ctx context.Context, id int64) error
}
