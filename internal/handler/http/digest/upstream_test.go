package digest_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-digest/internal/config"
	"daily-digest/internal/handler/http/digest"
	"daily-digest/internal/infra/cache"
	"daily-digest/internal/infra/fetcher"
	"daily-digest/internal/infra/parser"
	fetchUC "daily-digest/internal/usecase/fetch"
	srcUC "daily-digest/internal/usecase/source"
)

// newUpstreamServer wires the digest handlers to a real fetch stack whose
// only source is upstream.
func newUpstreamServer(t *testing.T, upstream http.HandlerFunc) *http.ServeMux {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	catalog, err := config.ParseCatalog([]byte(fmt.Sprintf(`
content_types:
  - name: 60s
    format_param: true
    sources:
      - {url: %q, priority: 1, parser: negotiated}
`, srv.URL+"/60s")))
	require.NoError(t, err)

	mgr := srcUC.NewManager(3)
	for _, ct := range catalog.ContentTypes {
		sources, err := ct.EntitySources()
		require.NoError(t, err)
		for _, src := range sources {
			mgr.Register(ct.Name, src)
		}
	}

	fcfg := fetcher.DefaultConfig()
	fcfg.CircuitBreakerEnabled = false
	svc := fetchUC.NewService(mgr, fetcher.NewExecutor(fcfg), parser.NewRegistry(),
		cache.New(cache.Config{}), catalog,
		fetchUC.Config{Timeout: 2 * time.Second, AutoFailover: true})

	mux := http.NewServeMux()
	digest.Register(mux, svc, nil)
	return mux
}

func TestGetHandler_UpstreamFailures(t *testing.T) {
	html := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>maintenance</body></html>"))
	}
	unavailable := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	tests := []struct {
		name     string
		upstream http.HandlerFunc
		target   string
		wantMsg  string
	}{
		{"html pinned", html, "/digests/60s?format=text&source=1", "upstream source failed"},
		{"html with failover", html, "/digests/60s?format=text", "all upstream sources failed"},
		{"status pinned", unavailable, "/digests/60s?format=text&source=1", "upstream source failed"},
		{"status with failover", unavailable, "/digests/60s?format=text", "all upstream sources failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newUpstreamServer(t, tt.upstream)

			rr := get(mux, tt.target)

			assert.Equal(t, http.StatusBadGateway, rr.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.NotContains(t, body["error"], "text/html")
			assert.NotContains(t, body["error"], "127.0.0.1")
		})
	}
}

func TestGetHandler_UpstreamJSONDigest(t *testing.T) {
	mux := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"news":["first","second"]}}`))
	})

	rr := get(mux, "/digests/60s?format=text&source=1")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	var got fetchUC.Digest
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.NotNil(t, got.Bundle)
	assert.Len(t, got.Bundle.Items, 2)
}
