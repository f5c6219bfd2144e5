package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/repository"
)

type DestinationRepo struct{ db *sql.DB }

func NewDestinationRepo(db *sql.DB) repository.DestinationRepository {
	return &DestinationRepo{db: db}
}

func (repo *DestinationRepo) ListForSource(ctx context.Context, sourceID int64) ([]*entity.Destination, error) {
	const query = `
SELECT id, source_id, channel_id, webhook_url
FROM destinations
WHERE source_id = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("ListForSource: %w", err)
	}
	defer func() { _ = rows.Close() }()

	destinations := make([]*entity.Destination, 0, 8)
	for rows.Next() {
		var dest entity.Destination
		if err := rows.Scan(&dest.ID, &dest.SourceID, &dest.ChannelID, &dest.WebhookURL); err != nil {
			return nil, fmt.Errorf("ListForSource: %w", err)
		}
		destinations = append(destinations, &dest)
	}
	return destinations, rows.Err()
}

func (repo *DestinationRepo) Add(ctx context.Context, dest *entity.Destination) error {
	const query = `
INSERT INTO destinations (source_id, channel_id, webhook_url)
VALUES ($1, $2, $3)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		dest.SourceID, dest.ChannelID, dest.WebhookURL,
	).Scan(&dest.ID)
	if err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	return nil
}

func (repo *DestinationRepo) Remove(ctx context.Context, id int64) error {
	const query = `
DELETE FROM destinations
WHERE id = $1`
	if _, err := repo.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}
