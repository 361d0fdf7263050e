package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/repository"
)

type SourceStatusRepo struct{ db *sql.DB }

func NewSourceStatusRepo(db *sql.DB) repository.SourceStatusRepository {
	return &SourceStatusRepo{db: db}
}

func (repo *SourceStatusRepo) Load(ctx context.Context) (map[string][]entity.SourceSnapshot, error) {
	const query = `
SELECT content_type, url, enabled, last_success, failure_count, priority, parser
FROM source_status
ORDER BY content_type ASC, priority ASC, url ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]entity.SourceSnapshot)
	for rows.Next() {
		var contentType string
		var snap entity.SourceSnapshot
		if err := rows.Scan(
			&contentType, &snap.URL, &snap.Enabled, &snap.LastSuccess,
			&snap.FailureCount, &snap.Priority, &snap.Parser,
		); err != nil {
			return nil, fmt.Errorf("Load: scan: %w", err)
		}
		out[contentType] = append(out[contentType], snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return out, nil
}

func (repo *SourceStatusRepo) Save(ctx context.Context, snapshots map[string][]entity.SourceSnapshot) error {
	const query = `
INSERT INTO source_status (content_type, url, enabled, last_success, failure_count, priority, parser, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (content_type, url) DO UPDATE SET
    enabled = EXCLUDED.enabled,
    last_success = EXCLUDED.last_success,
    failure_count = EXCLUDED.failure_count,
    priority = EXCLUDED.priority,
    parser = EXCLUDED.parser,
    updated_at = now()`

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("Save: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	types := make([]string, 0, len(snapshots))
	for ct := range snapshots {
		types = append(types, ct)
	}
	sort.Strings(types)

	for _, ct := range types {
		for _, snap := range snapshots[ct] {
			if _, err := stmt.ExecContext(ctx,
				ct, snap.URL, snap.Enabled, snap.LastSuccess,
				snap.FailureCount, snap.Priority, snap.Parser,
			); err != nil {
				return fmt.Errorf("Save: %s %s: %w", ct, snap.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Save: commit: %w", err)
	}
	return nil
}
