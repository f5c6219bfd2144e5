package sqlite

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
WHERE source_id = ?
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("ListForSource: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	destinations := make([]*entity.Destination, 0, 8)
	for rows.Next() {
		var dest entity.Destination
		if err := rows.Scan(&dest.ID, &dest.SourceID, &dest.ChannelID, &dest.WebhookURL); err != nil {
			return nil, fmt.Errorf("ListForSource: Scan: %w", err)
		}
		destinations = append(destinations, &dest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListForSource: rows.Err: %w", err)
	}
	return destinations, nil
}

func (repo *DestinationRepo) Add(ctx context.Context, dest *entity.Destination) error {
	const query = `
INSERT INTO destinations (source_id, channel_id, webhook_url)
VALUES (?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query, dest.SourceID, dest.ChannelID, dest.WebhookURL)
	if err != nil {
		return fmt.Errorf("Add: ExecContext: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Add: LastInsertId: %w", err)
	}
	dest.ID = id
	return nil
}

func (repo *DestinationRepo) Remove(ctx context.Context, id int64) error {
	const query = `
DELETE FROM destinations
WHERE id = ?`
	if _, err := repo.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("Remove: ExecContext: %w", err)
	}
	return nil
}
