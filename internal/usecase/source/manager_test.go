package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-digest/internal/domain/entity"
	"daily-digest/internal/infra/adapter/persistence/file"
	srcUC "daily-digest/internal/usecase/source"
)

/*──────────────────── in-memory stub ────────────────────*/

type stubRepo struct {
	mu      sync.Mutex
	loaded  map[string][]entity.SourceSnapshot
	loadErr error
	saveErr error
	saves   []map[string][]entity.SourceSnapshot
}

func (s *stubRepo) Load(_ context.Context) (map[string][]entity.SourceSnapshot, error) {
	return s.loaded, s.loadErr
}

func (s *stubRepo) Save(_ context.Context, snaps map[string][]entity.SourceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, snaps)
	return s.saveErr
}

func (s *stubRepo) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

var fixedNow = time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)

func newManager(repo *stubRepo) *srcUC.Manager {
	opts := []srcUC.Option{srcUC.WithClock(func() time.Time { return fixedNow })}
	if repo != nil {
		opts = append(opts, srcUC.WithRepository(repo))
	}
	m := srcUC.NewManager(3, opts...)
	m.Register("60s", entity.NewSource("https://a.example.com/60s", 2, entity.ParserNegotiated))
	m.Register("60s", entity.NewSource("https://b.example.com/60s", 1, entity.ParserEnvelope))
	m.Register("60s", entity.NewSource("https://c.example.com/60s", 1, entity.ParserDefault))
	m.Register("moyu", entity.NewSource("https://m.example.com/moyu", 1, entity.ParserBinaryImage))
	return m
}

func urls(sources []entity.Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.URL)
	}
	return out
}

/*──────────────────── registration & selection ────────────────────*/

func TestManager_RegisterDuplicateIsNoop(t *testing.T) {
	m := newManager(nil)

	ok := m.Register("60s", entity.NewSource("https://a.example.com/60s", 0, entity.ParserRSS))
	assert.False(t, ok)

	all := m.Sources("60s")
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].Priority)
	assert.Equal(t, entity.ParserNegotiated, all[0].Parser)
}

func TestManager_SameURLAcrossTypes(t *testing.T) {
	m := newManager(nil)
	assert.True(t, m.Register("zhihu", entity.NewSource("https://a.example.com/60s", 1, entity.ParserDefault)))
	assert.Equal(t, []string{"60s", "moyu", "zhihu"}, m.ContentTypes())
}

func TestManager_CandidatesStableByPriority(t *testing.T) {
	m := newManager(nil)

	assert.Equal(t, []string{
		"https://b.example.com/60s",
		"https://c.example.com/60s",
		"https://a.example.com/60s",
	}, urls(m.Candidates("60s")))

	best, ok := m.Best("60s")
	require.True(t, ok)
	assert.Equal(t, "https://b.example.com/60s", best.URL)
}

func TestManager_BestNone(t *testing.T) {
	m := newManager(nil)

	_, ok := m.Best("unknown")
	assert.False(t, ok)

	_, err := m.Disable(context.Background(), "moyu", srcUC.AllSources)
	require.NoError(t, err)
	_, ok = m.Best("moyu")
	assert.False(t, ok)
	assert.Empty(t, m.Enabled("moyu"))
}

func TestManager_ReturnsCopies(t *testing.T) {
	m := newManager(nil)

	got := m.Enabled("60s")
	got[0].Enabled = false
	got[0].Priority = 99

	assert.Len(t, m.Enabled("60s"), 3)
	assert.Equal(t, 2, m.Sources("60s")[0].Priority)
}

/*──────────────────── health counters ────────────────────*/

func TestManager_RecordSuccessResetsCounter(t *testing.T) {
	repo := &stubRepo{}
	m := newManager(repo)
	ctx := context.Background()
	url := "https://b.example.com/60s"

	m.RecordResult(ctx, "60s", url, false)
	m.RecordResult(ctx, "60s", url, false)
	m.RecordResult(ctx, "60s", url, true)

	snaps, ok := m.Status("60s")
	require.True(t, ok)
	assert.Equal(t, 0, snaps[1].FailureCount)
	assert.True(t, snaps[1].Enabled)
	assert.InDelta(t, float64(fixedNow.Unix()), snaps[1].LastSuccess, 0.001)
	assert.Equal(t, 0, repo.saveCount(), "plain results must not persist")
}

func TestManager_AutoDisableFiresOnce(t *testing.T) {
	repo := &stubRepo{}
	m := newManager(repo)
	ctx := context.Background()
	url := "https://a.example.com/60s"

	for i := 0; i < m.DisableThreshold()-1; i++ {
		m.RecordResult(ctx, "60s", url, false)
	}
	assert.Len(t, m.Enabled("60s"), 3)
	assert.Equal(t, 0, repo.saveCount())

	m.RecordResult(ctx, "60s", url, false)
	assert.Len(t, m.Enabled("60s"), 2)
	assert.Equal(t, 1, repo.saveCount())

	// further failures keep counting but never re-fire
	m.RecordResult(ctx, "60s", url, false)
	m.RecordResult(ctx, "60s", url, false)
	assert.Equal(t, 1, repo.saveCount())

	snaps, _ := m.Status("60s")
	assert.Equal(t, 8, snaps[0].FailureCount)
	assert.False(t, snaps[0].Enabled)

	persisted := repo.saves[0]["60s"][0]
	assert.Equal(t, url, persisted.URL)
	assert.False(t, persisted.Enabled)
}

func TestManager_AutoDisableSkipsManuallyDisabled(t *testing.T) {
	repo := &stubRepo{}
	m := newManager(repo)
	ctx := context.Background()
	url := "https://c.example.com/60s"

	_, err := m.Disable(ctx, "60s", url)
	require.NoError(t, err)
	require.Equal(t, 1, repo.saveCount())

	for i := 0; i < m.DisableThreshold()+2; i++ {
		m.RecordResult(ctx, "60s", url, false)
	}
	assert.Equal(t, 1, repo.saveCount())
}

func TestManager_RecordUnknownIgnored(t *testing.T) {
	repo := &stubRepo{}
	m := newManager(repo)

	m.RecordResult(context.Background(), "nope", "https://x.example.com", false)
	m.RecordResult(context.Background(), "60s", "https://x.example.com", false)

	assert.Equal(t, 0, repo.saveCount())
}

func TestManager_AutoDisablePersistErrorIsLogged(t *testing.T) {
	repo := &stubRepo{saveErr: errors.New("read-only filesystem")}
	m := srcUC.NewManager(0, srcUC.WithRepository(repo))
	m.Register("moyu", entity.NewSource("https://m.example.com/moyu", 1, entity.ParserBinaryImage))

	// threshold 0: the first failure disables
	m.RecordResult(context.Background(), "moyu", "https://m.example.com/moyu", false)

	assert.Empty(t, m.Enabled("moyu"))
	assert.Equal(t, 1, repo.saveCount())
}

/*──────────────────── admin operations ────────────────────*/

func TestManager_EnableDisableReset(t *testing.T) {
	repo := &stubRepo{}
	m := newManager(repo)
	ctx := context.Background()

	n, err := m.Disable(ctx, "60s", srcUC.AllSources)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, m.Enabled("60s"))

	n, err = m.Enable(ctx, "60s", "https://c.example.com/60s")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"https://c.example.com/60s"}, urls(m.Enabled("60s")))

	m.RecordResult(ctx, "60s", "https://c.example.com/60s", true)
	m.RecordResult(ctx, "60s", "https://c.example.com/60s", false)

	n, err = m.Reset(ctx, "60s", srcUC.AllSources)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	snaps, _ := m.Status("60s")
	for _, s := range snaps {
		assert.True(t, s.Enabled)
		assert.Zero(t, s.FailureCount)
		assert.Zero(t, s.LastSuccess)
	}
	assert.Equal(t, 3, repo.saveCount())
}

func TestManager_AdminErrors(t *testing.T) {
	repo := &stubRepo{}
	m := newManager(repo)
	ctx := context.Background()

	n, err := m.Enable(ctx, "nope", srcUC.AllSources)
	assert.ErrorIs(t, err, entity.ErrUnknownContentType)
	assert.NotErrorIs(t, err, srcUC.ErrStatusNotPersisted)
	assert.Zero(t, n)

	n, err = m.Disable(ctx, "60s", "https://x.example.com")
	assert.ErrorIs(t, err, srcUC.ErrSourceNotFound)
	assert.NotErrorIs(t, err, srcUC.ErrStatusNotPersisted)
	assert.Zero(t, n)

	assert.Len(t, m.Enabled("60s"), 3, "lookup failures change nothing")
	assert.Zero(t, repo.saveCount(), "lookup failures are not persisted")
}

func TestManager_AdminReturnsPersistError(t *testing.T) {
	repo := &stubRepo{saveErr: errors.New("disk full")}
	m := newManager(repo)
	ctx := context.Background()

	n, err := m.Disable(ctx, "moyu", "https://m.example.com/moyu")
	require.ErrorIs(t, err, srcUC.ErrStatusNotPersisted)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, n, "in-memory change applies even when the save fails")
	assert.Empty(t, m.Enabled("moyu"))

	n, err = m.ResetAll(ctx)
	assert.ErrorIs(t, err, srcUC.ErrStatusNotPersisted)
	assert.Equal(t, 4, n)
}

func TestManager_ResetAll(t *testing.T) {
	repo := &stubRepo{}
	m := newManager(repo)
	ctx := context.Background()

	_, _ = m.Disable(ctx, "60s", srcUC.AllSources)
	_, _ = m.Disable(ctx, "moyu", srcUC.AllSources)

	n, err := m.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, m.Enabled("60s"), 3)
	assert.Len(t, m.Enabled("moyu"), 1)
}

/*──────────────────── load overlay ────────────────────*/

func TestManager_LoadMergesOnlyEnabled(t *testing.T) {
	repo := &stubRepo{loaded: map[string][]entity.SourceSnapshot{
		"60s": {
			{URL: "https://a.example.com/60s", Enabled: false, FailureCount: 9, Priority: 0, Parser: "rss"},
			{URL: "https://gone.example.com", Enabled: false},
			{URL: "", Enabled: false},
		},
		"retired": {{URL: "https://r.example.com", Enabled: false}},
	}}
	m := newManager(repo)

	require.NoError(t, m.Load(context.Background()))

	all := m.Sources("60s")
	assert.False(t, all[0].Enabled)
	assert.Equal(t, 2, all[0].Priority)
	assert.Equal(t, entity.ParserNegotiated, all[0].Parser)
	assert.Zero(t, all[0].FailureCount)
	assert.True(t, all[1].Enabled)
	assert.Len(t, all, 3)
	assert.False(t, m.HasContentType("retired"))
	assert.Equal(t, 0, repo.saveCount())
}

func TestManager_LoadErrorResetsToSeeded(t *testing.T) {
	repo := &stubRepo{loadErr: errors.New("invalid character")}
	m := newManager(repo)
	ctx := context.Background()

	m.RecordResult(ctx, "60s", "https://a.example.com/60s", false)
	_, _ = m.Disable(ctx, "moyu", srcUC.AllSources)

	err := m.Load(ctx)
	require.Error(t, err)
	assert.Len(t, m.Enabled("60s"), 3)
	assert.Len(t, m.Enabled("moyu"), 1)
}

func TestManager_LoadWithoutRepository(t *testing.T) {
	m := newManager(nil)
	assert.NoError(t, m.Load(context.Background()))
}

func TestManager_FileStoreRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	ctx := context.Background()

	first := srcUC.NewManager(3, srcUC.WithRepository(file.NewSourceStatusRepo(path)))
	first.Register("moyu", entity.NewSource("https://m.example.com/moyu", 1, entity.ParserBinaryImage))
	first.Register("moyu", entity.NewSource("https://n.example.com/moyu", 2, entity.ParserBinaryImage))
	_, err := first.Disable(ctx, "moyu", "https://m.example.com/moyu")
	require.NoError(t, err)

	// the restarted process seeds a different priority for the disabled source
	second := srcUC.NewManager(3, srcUC.WithRepository(file.NewSourceStatusRepo(path)))
	second.Register("moyu", entity.NewSource("https://m.example.com/moyu", 5, entity.ParserBinaryImage))
	second.Register("moyu", entity.NewSource("https://n.example.com/moyu", 2, entity.ParserBinaryImage))
	require.NoError(t, second.Load(ctx))

	all := second.Sources("moyu")
	assert.False(t, all[0].Enabled)
	assert.Equal(t, 5, all[0].Priority)
	assert.True(t, all[1].Enabled)
}

func TestManager_FileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	m := srcUC.NewManager(3, srcUC.WithRepository(file.NewSourceStatusRepo(path)))
	m.Register("moyu", entity.NewSource("https://m.example.com/moyu", 1, entity.ParserBinaryImage))

	assert.Error(t, m.Load(context.Background()))
	assert.Len(t, m.Enabled("moyu"), 1)
}

/*──────────────────── concurrency ────────────────────*/

func TestManager_ConcurrentResults(t *testing.T) {
	repo := &stubRepo{}
	m := srcUC.NewManager(50, srcUC.WithRepository(repo))
	m.Register("60s", entity.NewSource("https://a.example.com/60s", 1, entity.ParserDefault))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordResult(context.Background(), "60s", "https://a.example.com/60s", false)
			_ = m.Candidates("60s")
		}()
	}
	wg.Wait()

	snaps, _ := m.Status("60s")
	assert.Equal(t, 100, snaps[0].FailureCount)
	assert.False(t, snaps[0].Enabled)
	assert.Equal(t, 1, repo.saveCount())
}
