package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

func TestInitialBuildReportHasSingleInformationalEntry(t *testing.T) {
	snap := kbmodel.Snapshot{
		SnapshotID: "20260301T120000Z",
		PageManifest: kbmodel.PageManifest{
			"guides/a": {Hash: "h1"},
			"guides/b": {Hash: "h2"},
			"guides/c": {Hash: "h3"},
		},
	}

	report := initialBuildReport(snap)

	assert.Equal(t, "Initial build", report.Summary)
	assert.Equal(t, 3, report.Stats.Added)
	require.Len(t, report.Changes[kbmodel.SeverityInformational], 1)

	entry := report.Changes[kbmodel.SeverityInformational][0]
	assert.Equal(t, "Initial build", entry.Title)
	assert.Equal(t, kbmodel.SeverityInformational, entry.Severity)
	assert.Empty(t, report.Changes[kbmodel.SeverityBreaking])
}

func TestLoadPreviousMarkdownStripsHeader(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "guides", "streaming.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(pagePath), 0o755))
	require.NoError(t, os.WriteFile(pagePath, []byte("---\ntitle: \"Streaming\"\nsource: \"repo-markdown\"\n---\n\n# Streaming\n\nBody.\n"), 0o644))

	pages := []kbmodel.RenderedPage{
		{Path: "guides/streaming"},
		{Path: "guides/not-on-disk"},
	}
	out := loadPreviousMarkdown(dir, pages)

	assert.Equal(t, "# Streaming\n\nBody.\n", out["guides/streaming"])
	assert.NotContains(t, out, "guides/not-on-disk")
}
