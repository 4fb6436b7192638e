package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

func TestSaveListLoadLatestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	first := kbmodel.Snapshot{
		SnapshotID:   "20260101T000000Z",
		GeneratedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PageManifest: kbmodel.PageManifest{"guides/a": {Hash: "h1"}},
	}
	second := kbmodel.Snapshot{
		SnapshotID:   "20260102T000000Z",
		GeneratedAt:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		PageManifest: kbmodel.PageManifest{"guides/a": {Hash: "h2"}},
	}

	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	names, err := store.List()
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.True(t, names[0] > names[1], "List must return newest first")

	latest, ok, err := store.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "20260102T000000Z", latest.SnapshotID)
}

func TestLoadLatestNoneReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	_, ok, err := store.LoadLatest()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildPageManifestFromRenderedPages(t *testing.T) {
	pages := []kbmodel.RenderedPage{
		{Path: "guides/a", ContentHash: "h1", TokenCount: 10, Title: "A", Tags: []string{"x"}},
	}
	manifest := BuildPageManifest(pages)
	require.Contains(t, manifest, "guides/a")
	assert.Equal(t, "h1", manifest["guides/a"].Hash)
}
