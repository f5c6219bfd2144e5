// Package sqlite implements the persistence contracts on SQLite for
// single-host deployments that don't want to run PostgreSQL.
package sqlite

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
WHERE active = 1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 50)
	for rows.Next() {
		var source entity.Source
		if err := rows.Scan(
			&source.ID, &source.Handle, &source.LastItemID, &source.LastCheckedAt, &source.Active,
		); err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		sources = append(sources, &source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows.Err: %w", err)
	}
	return sources, nil
}

func (repo *SourceRepo) GetByHandle(ctx context.Context, handle string) (*entity.Source, error) {
	const query = `
SELECT id, handle, last_item_id, last_checked_at, active
FROM sources
WHERE handle = ?
LIMIT 1`
	var source entity.Source
	err := repo.db.QueryRowContext(ctx, query, handle).Scan(
		&source.ID, &source.Handle, &source.LastItemID, &source.LastCheckedAt, &source.Active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByHandle: QueryRowContext: %w", err)
	}
	return &source, nil
}

func (repo *SourceRepo) Create(ctx context.Context, source *entity.Source) error {
	const query = `
INSERT INTO sources (handle, last_item_id, last_checked_at, active)
VALUES (?, ?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query,
		source.Handle, source.LastItemID, source.LastCheckedAt, source.Active,
	)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	source.ID = id
	return nil
}

func (repo *SourceRepo) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `
UPDATE sources SET active = ?
WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("SetActive: ExecContext: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrSourceNotFound
	}
	return nil
}

func (repo *SourceRepo) UpdateLastItemID(ctx context.Context, id int64, itemID string) error {
	const query = `
UPDATE sources SET last_item_id = ?
WHERE id = ?`
	if _, err := repo.db.ExecContext(ctx, query, itemID, id); err != nil {
		return fmt.Errorf("UpdateLastItemID: ExecContext: %w", err)
	}
	return nil
}

func (repo *SourceRepo) TouchCheckedAt(ctx context.Context, id int64) error {
	const query = `
UPDATE sources SET last_checked_at = CURRENT_TIMESTAMP
WHERE id = ?`
	if _, err := repo.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("TouchCheckedAt: ExecContext: %w", err)
	}
	return nil
}
