package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

func TestWriteEmitsPagesIndexAndManifest(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)

	pages := []kbmodel.RenderedPage{
		{Path: "guides/getting-started", Title: "Getting Started", Markdown: "Welcome to Venice.\n", Source: "repo-markdown", Tags: []string{"guides"}},
		{Path: "api-reference/endpoint/chat-completions", Title: "Chat Completions", Markdown: "Use this endpoint.\n", Source: "spec"},
	}

	err := w.Write(pages, BuildInfo{RepoCommit: "abc123", SpecHash: "deadbeef", BuildDurationSecs: 1.5, CollectorVersion: "1.0.0"}, nil)
	require.NoError(t, err)

	pageFile := filepath.Join(dir, "guides", "getting-started.md")
	content, err := os.ReadFile(pageFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `title: "Getting Started"`)
	assert.Contains(t, string(content), "Welcome to Venice.")

	for _, d := range skeletonDirs {
		_, err := os.Stat(filepath.Join(dir, d))
		assert.NoError(t, err, "skeleton dir %s must exist", d)
	}

	var index indexDoc
	raw, err := os.ReadFile(filepath.Join(dir, "index.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &index))
	assert.Equal(t, 2, index.Stats.TotalPages)
	assert.Equal(t, 1, index.Stats.TotalEndpoints)

	var manifest manifestDoc
	raw, err = os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, "abc123", manifest.RepoCommit)
	assert.Equal(t, 2, manifest.PageCount)
}

func TestContentHashIsNormalizedAndDeterministic(t *testing.T) {
	a := ContentHash("Hello   World")
	b := ContentHash("hello world")
	assert.Equal(t, a, b)
}

func TestWriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)
	pages := []kbmodel.RenderedPage{{Path: "overview/intro", Title: "Intro", Markdown: "Hello.\n", Source: "stub"}}

	require.NoError(t, w.Write(pages, BuildInfo{}, nil))
	require.NoError(t, w.Write(pages, BuildInfo{}, nil))

	content, err := os.ReadFile(filepath.Join(dir, "overview", "intro.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Hello.")
}
