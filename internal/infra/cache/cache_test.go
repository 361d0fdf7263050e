package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-digest/internal/observability/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)}
	return New(Config{DefaultTTL: ttl, Clock: clock}), clock
}

func TestKey(t *testing.T) {
	assert.Equal(t, "60s:image", Key("60s", "image", 0))
	assert.Equal(t, "60s:image:source2", Key("60s", "image", 2))
	assert.NotEqual(t, Key("60s", "text", 0), Key("60s", "text", 1))
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultTTL, c.DefaultTTL())
	assert.IsType(t, SystemClock{}, c.clock)
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	c.Set("60s", "text", "payload", 0, 0)

	got, ok := c.Get("60s", "text", 0)
	require.True(t, ok)
	assert.Equal(t, "payload", got)

	_, ok = c.Get("60s", "image", 0)
	assert.False(t, ok)
}

func TestCache_PinnedSlotIsSeparate(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	c.Set("60s", "image", "best", 0, 0)
	c.Set("60s", "image", "second", 0, 2)

	got, ok := c.Get("60s", "image", 0)
	require.True(t, ok)
	assert.Equal(t, "best", got)

	got, ok = c.Get("60s", "image", 2)
	require.True(t, ok)
	assert.Equal(t, "second", got)

	_, ok = c.Get("60s", "image", 1)
	assert.False(t, ok)
}

func TestCache_ExpiredEvictedOnGet(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	before := testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("expired"))

	c.Set("zhihu", "text", "x", 10*time.Second, 0)
	clock.Advance(9 * time.Second)
	_, ok := c.Get("zhihu", "text", 0)
	require.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("zhihu", "text", 0)
	require.True(t, ok, "valid at exactly expireAt")

	clock.Advance(time.Nanosecond)
	_, ok = c.Get("zhihu", "text", 0)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("expired")))
}

func TestCache_ExpiryBoundary(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Set("60s", "image", 1, 10*time.Second, 0)
	clock.Advance(10 * time.Second)

	assert.Equal(t, Status{Total: 1, Valid: 1, Types: map[string]int{"60s": 1}}, c.Status())
	assert.Equal(t, 0, c.ClearExpired())

	clock.Advance(time.Nanosecond)
	assert.Equal(t, Status{Total: 1, Expired: 1, Types: map[string]int{"60s": 1}}, c.Status())
	assert.Equal(t, 1, c.ClearExpired())
}

func TestCache_SetOverwrites(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.Set("moyu", "image", "old", 0, 0)
	clock.Advance(50 * time.Second)
	c.Set("moyu", "image", "new", 0, 0)
	clock.Advance(50 * time.Second)

	got, ok := c.Get("moyu", "image", 0)
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestCache_DeleteOperations(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	c.Set("60s", "image", 1, 0, 0)
	c.Set("60s", "text", 2, 0, 0)
	c.Set("60s", "text", 3, 0, 1)
	c.Set("60s0", "text", 4, 0, 0)
	c.Set("zhihu", "text", 5, 0, 0)

	assert.True(t, c.Delete("60s", "image", 0))
	assert.False(t, c.Delete("60s", "image", 0))

	assert.Equal(t, 2, c.DeleteByType("60s"))
	assert.Equal(t, 0, c.DeleteByType("60s"))
	assert.Equal(t, 2, c.Len(), "prefix match must stop at the separator")

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Clear())
}

func TestCache_ClearExpired(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Set("60s", "image", 1, 10*time.Second, 0)
	c.Set("60s", "text", 2, 20*time.Second, 0)
	c.Set("zhihu", "text", 3, 0, 0)

	clock.Advance(15 * time.Second)
	assert.Equal(t, 1, c.ClearExpired())
	assert.Equal(t, 2, c.Len())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 2, c.ClearExpired())
	assert.Equal(t, 0, c.ClearExpired())
}

func TestCache_StatusAndEntries(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	created := clock.Now()

	c.Set("60s", "image", 1, 10*time.Second, 0)
	c.Set("60s", "image", 2, 0, 3)
	c.Set("zhihu", "text", 3, 0, 0)
	clock.Advance(30 * time.Second)

	st := c.Status()
	assert.Equal(t, Status{
		Total:   3,
		Valid:   2,
		Expired: 1,
		Types:   map[string]int{"60s": 2, "zhihu": 1},
	}, st)

	want := []EntryInfo{
		{ContentType: "60s", Format: "image", CreatedAt: created, ExpiresIn: 0},
		{ContentType: "60s", Format: "image", SourceIndex: 3, CreatedAt: created, ExpiresIn: 3570},
		{ContentType: "zhihu", Format: "text", CreatedAt: created, ExpiresIn: 3570},
	}
	if diff := cmp.Diff(want, c.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	// Status and Entries never evict
	assert.Equal(t, 3, c.Len())
}

func TestCache_Concurrent(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("60s", "text", i, 0, i%5)
			_, _ = c.Get("60s", "text", i%5)
			_ = c.Status()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}
