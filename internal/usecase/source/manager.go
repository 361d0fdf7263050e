package source

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/observability/metrics"
	"daily-digest/internal/repository"
)

// Manager holds the sources of every content type.
// All methods are safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	sources map[string][]*entity.Source
	types   []string

	// saveMu serializes writes to the status store so snapshots land in order.
	saveMu sync.Mutex

	repo       repository.SourceStatusRepository
	maxRetries int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRepository sets the store used to persist the enabled overlay.
// Without one, state lives only in memory.
func WithRepository(repo repository.SourceStatusRepository) Option {
	return func(m *Manager) {
		m.repo = repo
	}
}

// WithClock overrides the time source used for LastSuccess stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty Manager.
// A source is auto-disabled once its failure count reaches 2*maxRetries.
func NewManager(maxRetries int, opts ...Option) *Manager {
	m := &Manager{
		sources:    make(map[string][]*entity.Source),
		maxRetries: maxRetries,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DisableThreshold returns the failure count at which a source is auto-disabled.
func (m *Manager) DisableThreshold() int {
	return 2 * m.maxRetries
}

// Register appends src to the content type's sources.
// It returns false, leaving the existing source untouched, when the URL is
// already registered for that content type.
func (m *Manager) Register(contentType string, src entity.Source) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, known := m.sources[contentType]
	if !known {
		m.types = append(m.types, contentType)
	}
	for _, existing := range list {
		if existing.URL == src.URL {
			return false
		}
	}
	s := src
	m.sources[contentType] = append(list, &s)
	metrics.UpdateSourcesEnabled(contentType, countEnabled(m.sources[contentType]))
	return true
}

// ContentTypes returns the registered content types in registration order.
func (m *Manager) ContentTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.types))
	copy(out, m.types)
	return out
}

// HasContentType reports whether any source is registered for contentType.
func (m *Manager) HasContentType(contentType string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sources[contentType]
	return ok
}

// Sources returns copies of every source of the content type in registration order.
func (m *Manager) Sources(contentType string) []entity.Source {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.sources[contentType]
	out := make([]entity.Source, 0, len(list))
	for _, s := range list {
		out = append(out, *s)
	}
	return out
}

// Enabled returns copies of the enabled sources in registration order.
func (m *Manager) Enabled(contentType string) []entity.Source {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []entity.Source
	for _, s := range m.sources[contentType] {
		if s.Enabled {
			out = append(out, *s)
		}
	}
	return out
}

// Candidates returns the enabled sources ordered by ascending priority.
// Ties keep registration order.
func (m *Manager) Candidates(contentType string) []entity.Source {
	out := m.Enabled(contentType)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Best returns the preferred enabled source, or false when none is enabled.
func (m *Manager) Best(contentType string) (entity.Source, bool) {
	candidates := m.Candidates(contentType)
	if len(candidates) == 0 {
		return entity.Source{}, false
	}
	return candidates[0], true
}

// RecordResult updates the health counters of a source after a fetch.
// A success clears the failure count and stamps LastSuccess. A failure
// increments the count and disables the source when the count reaches the
// threshold; only that transition is persisted.
// Unknown content types or URLs are ignored.
func (m *Manager) RecordResult(ctx context.Context, contentType, url string, success bool) {
	m.mu.Lock()
	src := m.find(contentType, url)
	if src == nil {
		m.mu.Unlock()
		return
	}

	disabled := false
	if success {
		src.LastSuccess = m.now()
		src.FailureCount = 0
	} else {
		src.FailureCount++
		if src.FailureCount >= m.DisableThreshold() && src.Enabled {
			src.Enabled = false
			disabled = true
		}
	}
	failures := src.FailureCount
	enabledCount := countEnabled(m.sources[contentType])
	m.mu.Unlock()

	metrics.RecordSourceResult(contentType, success)
	if !disabled {
		return
	}

	metrics.RecordSourceAutoDisabled(contentType)
	metrics.UpdateSourcesEnabled(contentType, enabledCount)
	m.logger.Warn("source auto-disabled after repeated failures",
		slog.String("content_type", contentType),
		slog.String("url", url),
		slog.Int("failure_count", failures),
		slog.Int("threshold", m.DisableThreshold()))

	if err := m.persist(ctx); err != nil {
		m.logger.Error("failed to persist source status",
			slog.String("content_type", contentType),
			slog.Any("error", err))
	}
}

// Enable re-enables the source with the given URL, or every source when url
// is AllSources. The new state is persisted.
func (m *Manager) Enable(ctx context.Context, contentType, url string) (int, error) {
	return m.apply(ctx, "enable", contentType, url, func(s *entity.Source) {
		s.Enabled = true
	})
}

// Disable disables the source with the given URL, or every source when url
// is AllSources. The new state is persisted.
func (m *Manager) Disable(ctx context.Context, contentType, url string) (int, error) {
	return m.apply(ctx, "disable", contentType, url, func(s *entity.Source) {
		s.Enabled = false
	})
}

// Reset re-enables the source and clears its counters. url may be AllSources.
func (m *Manager) Reset(ctx context.Context, contentType, url string) (int, error) {
	return m.apply(ctx, "reset", contentType, url, resetSource)
}

// ResetAll resets every source of every content type and persists the result.
func (m *Manager) ResetAll(ctx context.Context) (int, error) {
	n := m.resetInMemory()
	m.logger.Info("all sources reset", slog.Int("count", n))
	if err := m.persist(ctx); err != nil {
		return n, err
	}
	return n, nil
}

func (m *Manager) apply(ctx context.Context, op, contentType, url string, fn func(*entity.Source)) (int, error) {
	m.mu.Lock()
	list, ok := m.sources[contentType]
	if !ok {
		m.mu.Unlock()
		return 0, fmt.Errorf("%s %q: %w", op, contentType, entity.ErrUnknownContentType)
	}

	count := 0
	for _, s := range list {
		if url == AllSources || s.URL == url {
			fn(s)
			count++
		}
	}
	enabledCount := countEnabled(list)
	m.mu.Unlock()

	if count == 0 {
		return 0, fmt.Errorf("%s %q %s: %w", op, contentType, url, ErrSourceNotFound)
	}

	metrics.UpdateSourcesEnabled(contentType, enabledCount)
	m.logger.Info("source state changed",
		slog.String("op", op),
		slog.String("content_type", contentType),
		slog.String("url", url),
		slog.Int("count", count))

	if err := m.persist(ctx); err != nil {
		return count, err
	}
	return count, nil
}

// Load merges the persisted enabled flags onto the registered sources.
// Priority, parser and counters always come from registration. Entries for
// unknown content types or URLs are skipped. When the store cannot be read,
// every source is reset to its seeded state and the read error is returned;
// the manager stays usable either way.
func (m *Manager) Load(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}

	overlay, err := m.repo.Load(ctx)
	if err != nil {
		n := m.resetInMemory()
		m.logger.Warn("source status unreadable, using seeded state",
			slog.Int("reset", n),
			slog.Any("error", err))
		return fmt.Errorf("load source status: %w", err)
	}

	m.mu.Lock()
	applied := 0
	for contentType, snaps := range overlay {
		if _, ok := m.sources[contentType]; !ok {
			m.logger.Warn("skipping status of unknown content type",
				slog.String("content_type", contentType))
			continue
		}
		for _, snap := range snaps {
			if snap.URL == "" {
				continue
			}
			src := m.find(contentType, snap.URL)
			if src == nil {
				m.logger.Warn("skipping status of unknown source",
					slog.String("content_type", contentType),
					slog.String("url", snap.URL))
				continue
			}
			src.Enabled = snap.Enabled
			applied++
		}
	}
	for contentType, list := range m.sources {
		metrics.UpdateSourcesEnabled(contentType, countEnabled(list))
	}
	m.mu.Unlock()

	m.logger.Info("source status loaded", slog.Int("applied", applied))
	return nil
}

// Status returns snapshots of the content type's sources in registration order.
func (m *Manager) Status(contentType string) ([]entity.SourceSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list, ok := m.sources[contentType]
	if !ok {
		return nil, false
	}
	return snapshots(list), true
}

// StatusAll returns snapshots of every content type.
func (m *Manager) StatusAll() map[string][]entity.SourceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]entity.SourceSnapshot, len(m.sources))
	for contentType, list := range m.sources {
		out[contentType] = snapshots(list)
	}
	return out
}

func (m *Manager) persist(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	if err := m.repo.Save(ctx, m.StatusAll()); err != nil {
		return fmt.Errorf("%w: %w", ErrStatusNotPersisted, err)
	}
	return nil
}

func (m *Manager) resetInMemory() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for contentType, list := range m.sources {
		for _, s := range list {
			resetSource(s)
			n++
		}
		metrics.UpdateSourcesEnabled(contentType, len(list))
	}
	return n
}

// find must be called with mu held.
func (m *Manager) find(contentType, url string) *entity.Source {
	for _, s := range m.sources[contentType] {
		if s.URL == url {
			return s
		}
	}
	return nil
}

func resetSource(s *entity.Source) {
	s.Enabled = true
	s.FailureCount = 0
	s.LastSuccess = time.Time{}
}

func countEnabled(list []*entity.Source) int {
	n := 0
	for _, s := range list {
		if s.Enabled {
			n++
		}
	}
	return n
}

func snapshots(list []*entity.Source) []entity.SourceSnapshot {
	out := make([]entity.SourceSnapshot, 0, len(list))
	for _, s := range list {
		out = append(out, s.Snapshot())
	}
	return out
}
