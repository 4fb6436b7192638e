package specsrc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/ternarybob/venicekb/internal/cache"
)

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{Type: models.LogWriterTypeConsole})
	store, err := cache.New(filepath.Join(t.TempDir(), "cache"), false, logger)
	require.NoError(t, err)
	return store
}

func newTestLogger() arbor.ILogger {
	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{Type: models.LogWriterTypeConsole})
}

func TestFetchParsesJSONSpec(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"openapi": "3.0.0", "paths": {"/models": {"get": {"summary": "List models"}}}}`))
	}))
	defer srv.Close()

	f := New(srv.URL+"/openapi.json", newTestStore(t), newTestLogger())
	// The httptest URL has no .yaml suffix so the JSON branch is taken.
	result, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", result.Doc["openapi"])
	assert.NotEmpty(t, result.Hash)
}

func TestParseYAMLBySuffix(t *testing.T) {
	doc, err := parse("https://example.com/openapi.yaml", []byte("openapi: 3.0.0\npaths:\n  /models:\n    get:\n      summary: List models\n"))
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", doc["openapi"])

	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok, "yaml mappings must decode to map[string]interface{}")
	assert.Contains(t, paths, "/models")
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := parse("https://example.com/openapi.json", []byte(`{"openapi": `))
	require.Error(t, err)
}

func TestFetchHashIsStableAcrossRuns(t *testing.T) {
	body := []byte(`{"openapi": "3.0.0", "paths": {}}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	f1 := New(srv.URL+"/spec.json", newTestStore(t), newTestLogger())
	r1, err := f1.Fetch(context.Background())
	require.NoError(t, err)

	f2 := New(srv.URL+"/spec.json", newTestStore(t), newTestLogger())
	r2, err := f2.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, r1.Hash, r2.Hash, "identical bytes must hash identically")
}
