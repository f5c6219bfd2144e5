package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazy2go/instagram-discord-bot/internal/repository"
)

type HistoryRepo struct{ db *sql.DB }

func NewHistoryRepo(db *sql.DB) repository.HistoryRepository {
	return &HistoryRepo{db: db}
}

func (repo *HistoryRepo) HasBeenNotified(ctx context.Context, sourceID int64, itemID string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM notification_history
    WHERE source_id = $1 AND item_id = $2
)`
	var exists bool
	err := repo.db.QueryRowContext(ctx, query, sourceID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("HasBeenNotified: %w", err)
	}
	return exists, nil
}

func (repo *HistoryRepo) RecordNotified(ctx context.Context, sourceID int64, itemID, url string) error {
	// ON CONFLICT keeps the original notified_at when the same item is
	// recorded twice (e.g. forced re-check after a crash).
	const query = `
INSERT INTO notification_history (source_id, item_id, url, notified_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (source_id, item_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, sourceID, itemID, url); err != nil {
		return fmt.Errorf("RecordNotified: %w", err)
	}
	return nil
}

func (repo *HistoryRepo) PruneOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	const query = `
DELETE FROM notification_history
WHERE notified_at < now() - make_interval(days => $1)`
	res, err := repo.db.ExecContext(ctx, query, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("PruneOlderThan: %w", err)
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("PruneOlderThan: %w", err)
	}
	return pruned, nil
}
