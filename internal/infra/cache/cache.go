// Package cache provides the in-process TTL store for rendered digests.
//
// Entries are keyed by content type, output format and an optional pinned
// source index. A pinned slot ("60s:image:source2") never collides with the
// default slot ("60s:image"), so inspecting a lower-priority source neither
// reads nor overwrites the cached best-source result.
//
// Expired entries are evicted lazily on Get; ClearExpired reclaims entries
// nobody looks up again and is meant to be run periodically.
package cache

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"daily-digest/internal/observability/metrics"
)

// DefaultTTL is used when Config.DefaultTTL is not positive.
const DefaultTTL = time.Hour

// Clock provides the current time. Tests inject a fake one.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds cache settings.
type Config struct {
	// DefaultTTL applies to Set calls with a non-positive ttl.
	DefaultTTL time.Duration

	// Clock provides time operations for testing.
	// Default: SystemClock
	Clock Clock

	Logger *slog.Logger
}

type entry struct {
	payload   any
	createdAt time.Time
	expireAt  time.Time
}

// expired reports whether now is past expireAt. An entry is still valid at
// exactly expireAt.
func (e *entry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// Cache is a mutex-guarded map of entries.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	defaultTTL time.Duration
	clock      Clock
	logger     *slog.Logger
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: cfg.DefaultTTL,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
}

// Key builds the composite key. sourceIndex 0 selects the default slot.
func Key(contentType, format string, sourceIndex int) string {
	if sourceIndex > 0 {
		return contentType + ":" + format + ":source" + strconv.Itoa(sourceIndex)
	}
	return contentType + ":" + format
}

// DefaultTTL returns the TTL applied when Set is called without one.
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Get returns the cached payload. An expired entry is removed and reported as a miss.
func (c *Cache) Get(contentType, format string, sourceIndex int) (any, bool) {
	key := Key(contentType, format, sourceIndex)

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		metrics.RecordCacheLookup("miss")
		return nil, false
	}
	if e.expired(c.clock.Now()) {
		delete(c.entries, key)
		size := len(c.entries)
		c.mu.Unlock()

		metrics.RecordCacheLookup("expired")
		metrics.RecordCacheEvictions("expired", 1)
		metrics.UpdateCacheEntries(size)
		c.logger.Debug("cache entry expired", slog.String("key", key))
		return nil, false
	}
	payload := e.payload
	c.mu.Unlock()

	metrics.RecordCacheLookup("hit")
	return payload, true
}

// Set stores payload, replacing any existing entry. A non-positive ttl
// selects the default.
func (c *Cache) Set(contentType, format string, payload any, ttl time.Duration, sourceIndex int) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	key := Key(contentType, format, sourceIndex)
	now := c.clock.Now()

	c.mu.Lock()
	c.entries[key] = &entry{
		payload:   payload,
		createdAt: now,
		expireAt:  now.Add(ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(size)
	c.logger.Debug("cache entry stored", slog.String("key", key), slog.Duration("ttl", ttl))
}

// Delete removes one entry and reports whether it existed.
func (c *Cache) Delete(contentType, format string, sourceIndex int) bool {
	key := Key(contentType, format, sourceIndex)

	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	if ok {
		metrics.RecordCacheEvictions("deleted", 1)
		metrics.UpdateCacheEntries(size)
	}
	return ok
}

// DeleteByType removes every entry of a content type, pinned slots included.
func (c *Cache) DeleteByType(contentType string) int {
	prefix := contentType + ":"

	c.mu.Lock()
	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.RecordCacheEvictions("deleted", n)
	metrics.UpdateCacheEntries(size)
	if n > 0 {
		c.logger.Debug("cache entries deleted", slog.String("content_type", contentType), slog.Int("count", n))
	}
	return n
}

// Clear removes every entry.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	metrics.RecordCacheEvictions("cleared", n)
	metrics.UpdateCacheEntries(0)
	c.logger.Debug("cache cleared", slog.Int("count", n))
	return n
}

// ClearExpired removes entries past their expiry.
func (c *Cache) ClearExpired() int {
	now := c.clock.Now()

	c.mu.Lock()
	n := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			n++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.RecordCacheEvictions("expired", n)
	metrics.UpdateCacheEntries(size)
	if n > 0 {
		c.logger.Debug("expired cache entries cleared", slog.Int("count", n))
	}
	return n
}

// Status summarizes the cache contents.
type Status struct {
	Total   int            `json:"total"`
	Valid   int            `json:"valid"`
	Expired int            `json:"expired"`
	Types   map[string]int `json:"types"`
}

// Status counts entries without evicting anything.
func (c *Cache) Status() Status {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{Total: len(c.entries), Types: make(map[string]int)}
	for key, e := range c.entries {
		if e.expired(now) {
			st.Expired++
		} else {
			st.Valid++
		}
		contentType, _, _ := splitKey(key)
		st.Types[contentType]++
	}
	return st
}

// EntryInfo describes one cached entry.
type EntryInfo struct {
	ContentType string    `json:"type"`
	Format      string    `json:"format"`
	SourceIndex int       `json:"source_index,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresIn   int64     `json:"expires_in"`
}

// Entries lists every entry ordered by key. ExpiresIn is in whole seconds
// and is zero for expired entries.
func (c *Cache) Entries() []EntryInfo {
	now := c.clock.Now()

	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]EntryInfo, 0, len(keys))
	for _, key := range keys {
		e := c.entries[key]
		contentType, format, idx := splitKey(key)
		remaining := e.expireAt.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, EntryInfo{
			ContentType: contentType,
			Format:      format,
			SourceIndex: idx,
			CreatedAt:   e.createdAt,
			ExpiresIn:   int64(remaining / time.Second),
		})
	}
	c.mu.Unlock()

	return out
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func splitKey(key string) (contentType, format string, sourceIndex int) {
	parts := strings.SplitN(key, ":", 3)
	contentType = parts[0]
	if len(parts) > 1 {
		format = parts[1]
	}
	if len(parts) > 2 {
		sourceIndex, _ = strconv.Atoi(strings.TrimPrefix(parts[2], "source"))
	}
	return contentType, format, sourceIndex
}
