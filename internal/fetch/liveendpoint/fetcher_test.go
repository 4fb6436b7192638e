package liveendpoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

func newTestLogger() arbor.ILogger {
	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{Type: models.LogWriterTypeConsole})
}

func TestFetchDisabledWithoutAPIKey(t *testing.T) {
	f := New("https://api.example.com", "", newTestLogger())
	assert.False(t, f.Enabled())

	models, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestFetchParsesEnvelopeForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": [{"id": "venice-large"}, {"id": "venice-small"}]}`))
	}))
	defer srv.Close()

	f := New(srv.URL, "test-key", newTestLogger())
	models, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "venice-large", models[0].ID)
}

func TestFetchParsesBareArrayForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "venice-large"}]`))
	}))
	defer srv.Close()

	f := New(srv.URL, "test-key", newTestLogger())
	models, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "venice-large", models[0].ID)
}

func TestFetchTreatsUnauthorizedAsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := New(srv.URL, "bad-key", newTestLogger())
	models, err := f.Fetch(context.Background())
	require.NoError(t, err, "401 is a permanent failure, not an error")
	assert.Empty(t, models)
}

func TestFetchTreatsServerErrorAsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(srv.URL, "test-key", newTestLogger())
	models, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestRenderMarkdownSortsModelIDs(t *testing.T) {
	md := RenderMarkdown([]Model{{ID: "venice-small"}, {ID: "venice-large"}})
	assert.Contains(t, md, "| Model ID |")
	assert.Less(t, strings.Index(md, "venice-large"), strings.Index(md, "venice-small"))
}

func TestRenderMarkdownEmptyList(t *testing.T) {
	md := RenderMarkdown(nil)
	assert.Contains(t, md, "No models were reported")
}
