// Package file stores source status snapshots as a single JSON document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/repository"
)

// DefaultStatusFile is used when no path is configured.
const DefaultStatusFile = "data/source_status.json"

// SourceStatusRepo reads and writes the status document at path.
type SourceStatusRepo struct {
	path string
	mu   sync.Mutex
}

// NewSourceStatusRepo returns a file-backed status repository.
func NewSourceStatusRepo(path string) repository.SourceStatusRepository {
	if path == "" {
		path = DefaultStatusFile
	}
	return &SourceStatusRepo{path: path}
}

// Load reads the status document. A missing file yields an empty map.
func (r *SourceStatusRepo) Load(_ context.Context) (map[string][]entity.SourceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]entity.SourceSnapshot{}, nil
		}
		return nil, fmt.Errorf("Load: read %s: %w", r.path, err)
	}

	out := map[string][]entity.SourceSnapshot{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("Load: unmarshal %s: %w", r.path, err)
	}
	return out, nil
}

// Save replaces the status document. The write goes to a temporary file
// that is renamed over the target so readers never see a partial document.
func (r *SourceStatusRepo) Save(_ context.Context, snapshots map[string][]entity.SourceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("Save: create directory %s: %w", dir, err)
	}

	if snapshots == nil {
		snapshots = map[string][]entity.SourceSnapshot{}
	}
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("Save: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("Save: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("Save: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("Save: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("Save: close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		cleanup()
		return fmt.Errorf("Save: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		cleanup()
		return fmt.Errorf("Save: rename into %s: %w", r.path, err)
	}
	return nil
}
