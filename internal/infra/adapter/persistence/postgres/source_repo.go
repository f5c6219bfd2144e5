// Package postgres implements the persistence contracts on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/repository"
)

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.Source, error) {
	const query = `
SELECT id, handle, last_item_id, last_checked_at, active
FROM sources
WHERE active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 50)
	for rows.Next() {
		var source entity.Source
		if err := rows.Scan(
			&source.ID, &source.Handle, &source.LastItemID, &source.LastCheckedAt, &source.Active,
		); err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		sources = append(sources, &source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) GetByHandle(ctx context.Context, handle string) (*entity.Source, error) {
	const query = `
SELECT id, handle, last_item_id, last_checked_at, active
FROM sources
WHERE handle = $1
LIMIT 1`
	var source entity.Source
	err := repo.db.QueryRowContext(ctx, query, handle).Scan(
		&source.ID, &source.Handle, &source.LastItemID, &source.LastCheckedAt, &source.Active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByHandle: %w", err)
	}
	return &source, nil
}

func (repo *SourceRepo) Create(ctx context.Context, source *entity.Source) error {
	const query = `
INSERT INTO sources (handle, last_item_id, last_checked_at, active)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		source.Handle, source.LastItemID, source.LastCheckedAt, source.Active,
	).Scan(&source.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SourceRepo) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `
UPDATE sources SET active = $1
WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrSourceNotFound
	}
	return nil
}

func (repo *SourceRepo) UpdateLastItemID(ctx context.Context, id int64, itemID string) error {
	const query = `
UPDATE sources SET last_item_id = $1
WHERE id = $2`
	if _, err := repo.db.ExecContext(ctx, query, itemID, id); err != nil {
		return fmt.Errorf("UpdateLastItemID: %w", err)
	}
	return nil
}

func (repo *SourceRepo) TouchCheckedAt(ctx context.Context, id int64) error {
	const query = `
UPDATE sources SET last_checked_at = now()
WHERE id = $1`
	if _, err := repo.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("TouchCheckedAt: %w", err)
	}
	return nil
}
