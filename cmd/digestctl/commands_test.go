package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

// setup starts an upstream serving a hot list and an image, writes a catalog
// pointing at it and isolates the status file. It returns the catalog path.
func setup(t *testing.T) (string, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/zhihu", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Zhihu Hot","data":[
			{"title":"first","url":"https://zhihu.example.com/q/1","hot":"99"},
			{"title":"second"}
		]}`))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/bing.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	yaml := fmt.Sprintf(`
content_types:
  - name: zhihu
    description: Zhihu hot list
    aliases: [zh]
    formats: [text]
    sources:
      - {url: "%[1]s/down", priority: 1, parser: hot_list}
      - {url: "%[1]s/zhihu", priority: 2, parser: hot_list}
  - name: bing
    formats: [image]
    sources:
      - {url: "%[1]s/bing.png", priority: 1, parser: binary_image}
`, srv.URL)
	require.NoError(t, os.WriteFile(catalog, []byte(yaml), 0o600))

	t.Setenv("STATUS_STORE", "file")
	t.Setenv("STATUS_FILE", filepath.Join(dir, "status.json"))
	t.Setenv("MAX_RETRIES", "0")
	t.Setenv("FETCH_CIRCUIT_BREAKER_ENABLED", "false")
	return catalog, srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFetch_TextFailsOverToSecondSource(t *testing.T) {
	catalog, _ := setup(t)

	out, err := run(t, "--catalog", catalog, "fetch", "zh")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "Zhihu Hot"))
	assert.Equal(t, "1. first [99]", lines[1])
	assert.Equal(t, "   https://zhihu.example.com/q/1", lines[2])
	assert.Equal(t, "2. second", lines[3])
}

func TestFetch_JSON(t *testing.T) {
	catalog, _ := setup(t)

	out, err := run(t, "--catalog", catalog, "fetch", "zhihu", "--source", "2", "--json")
	require.NoError(t, err)

	var got struct {
		Type   string `json:"type"`
		Bundle struct {
			Items []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			} `json:"items"`
		} `json:"bundle"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "zhihu", got.Type)
	require.Len(t, got.Bundle.Items, 2)
	assert.Equal(t, "#", got.Bundle.Items[1].URL)
}

func TestFetch_PinnedFailingSource(t *testing.T) {
	catalog, _ := setup(t)

	_, err := run(t, "--catalog", catalog, "fetch", "zhihu", "--source", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_ImageRequiresOutput(t *testing.T) {
	catalog, _ := setup(t)

	_, err := run(t, "--catalog", catalog, "fetch", "bing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")

	target := filepath.Join(t.TempDir(), "bing.png")
	out, err := run(t, "--catalog", catalog, "fetch", "bing", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, written)
}

func TestFetch_Errors(t *testing.T) {
	catalog, _ := setup(t)

	_, err := run(t, "--catalog", catalog, "fetch", "weather")
	assert.ErrorContains(t, err, "unknown content type")

	_, err = run(t, "--catalog", catalog, "fetch", "zhihu", "--format", "image")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = run(t, "--catalog", catalog, "fetch", "zhihu", "--source=-1")
	assert.ErrorContains(t, err, "invalid source index")

	_, err = run(t, "--catalog", catalog, "fetch", "zhihu", "--source", "3")
	assert.ErrorContains(t, err, "out of range")
}

func TestTypes(t *testing.T) {
	catalog, _ := setup(t)

	out, err := run(t, "--catalog", catalog, "types")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TYPE")
	assert.Equal(t, []string{"zhihu", "zh", "text", "2", "Zhihu", "hot", "list"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"bing", "-", "image", "1", "-"}, strings.Fields(lines[2]))
}

func TestSourceActionsPersist(t *testing.T) {
	catalog, srv := setup(t)
	down := srv.URL + "/down"

	out, err := run(t, "--catalog", catalog, "disable", "zh", down)
	require.NoError(t, err)
	assert.Equal(t, "disable: 1 source(s) of zhihu\n", out)

	// A fresh invocation reloads the status file.
	out, err = run(t, "--catalog", catalog, "sources", "zhihu")
	require.NoError(t, err)
	assert.Regexp(t, `zhihu\s+1\s+false\s+0\s+never\s+hot_list\s+`+down, out)

	out, err = run(t, "--catalog", catalog, "reset", "zhihu", "all")
	require.NoError(t, err)
	assert.Equal(t, "reset: 2 source(s) of zhihu\n", out)

	out, err = run(t, "--catalog", catalog, "sources")
	require.NoError(t, err)
	assert.NotContains(t, out, "false")
	assert.Contains(t, out, "bing")
}

func TestSourceActions_Errors(t *testing.T) {
	catalog, _ := setup(t)

	_, err := run(t, "--catalog", catalog, "enable", "zhihu", "https://unknown.example.com")
	assert.ErrorContains(t, err, "source not found")

	_, err = run(t, "--catalog", catalog, "disable", "weather", "all")
	assert.ErrorContains(t, err, "unknown content type")

	_, err = run(t, "--catalog", catalog, "reset", "zhihu")
	assert.ErrorContains(t, err, "--all-types")

	out, err := run(t, "--catalog", catalog, "reset", "--all-types")
	require.NoError(t, err)
	assert.Equal(t, "reset: 3 source(s) of every type\n", out)
}

func TestParsers(t *testing.T) {
	catalog, _ := setup(t)

	out, err := run(t, "--catalog", catalog, "parsers")
	require.NoError(t, err)

	kinds := strings.Fields(out)
	assert.Contains(t, kinds, "hot_list")
	assert.Contains(t, kinds, "binary_image")
	assert.Contains(t, kinds, "negotiated")
}
