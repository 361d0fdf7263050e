package repository

import (
	"context"

	"daily-digest/internal/domain/entity"
)

// SourceStatusRepository persists the per content type source snapshots.
// Load returns an empty map, not an error, when nothing was saved yet.
type SourceStatusRepository interface {
	Load(ctx context.Context) (map[string][]entity.SourceSnapshot, error)
	Save(ctx context.Context, snapshots map[string][]entity.SourceSnapshot) error
}
