package differ

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

func manifest(entries map[string]kbmodel.PageManifestEntry) kbmodel.Snapshot {
	return kbmodel.Snapshot{PageManifest: entries}
}

func TestCompareClassifiesAddedAndRemoved(t *testing.T) {
	d := New(Options{})
	old := manifest(map[string]kbmodel.PageManifestEntry{
		"guides/legacy": {Hash: "h1", TokenCount: 100},
	})
	newSnap := manifest(map[string]kbmodel.PageManifestEntry{
		"guides/new": {Hash: "h2", TokenCount: 100},
	})

	report := d.Compare(old, newSnap, time.Now())
	assert.Equal(t, 1, report.Stats.Added)
	assert.Equal(t, 1, report.Stats.Removed)

	var addedSeverity, removedSeverity kbmodel.Severity
	for _, c := range report.AllChanges() {
		if c.Path == "guides/new" {
			addedSeverity = c.Severity
		}
		if c.Path == "guides/legacy" {
			removedSeverity = c.Severity
		}
	}
	assert.Equal(t, kbmodel.SeverityInformational, addedSeverity)
	assert.Equal(t, kbmodel.SeverityImportant, removedSeverity)
}

func TestCompareUpgradesRemovedEndpointToBreaking(t *testing.T) {
	d := New(Options{})
	old := manifest(map[string]kbmodel.PageManifestEntry{
		"api-reference/endpoint/audio/speech": {Hash: "h1", TokenCount: 200},
	})
	newSnap := manifest(map[string]kbmodel.PageManifestEntry{})

	report := d.Compare(old, newSnap, time.Now())
	require.Len(t, report.AllChanges(), 1)
	assert.Equal(t, kbmodel.SeverityBreaking, report.AllChanges()[0].Severity)
	assert.Equal(t, kbmodel.ChangeRemoved, report.AllChanges()[0].ChangeType)
}

func TestCompareUnchangedWhenHashMatches(t *testing.T) {
	d := New(Options{})
	old := manifest(map[string]kbmodel.PageManifestEntry{"guides/a": {Hash: "h1"}})
	newSnap := manifest(map[string]kbmodel.PageManifestEntry{"guides/a": {Hash: "h1"}})

	report := d.Compare(old, newSnap, time.Now())
	assert.Equal(t, 1, report.Stats.Unchanged)
	assert.Empty(t, report.AllChanges())
	assert.Equal(t, "No significant changes", report.Summary)
}

func TestCompareUpgradesToBreakingOnTextualSignal(t *testing.T) {
	pageSource := &PageSource{
		Old: func(path string) (string, bool) { return "This parameter is required.", true },
		New: func(path string) (string, bool) { return "This required parameter was removed.", true },
	}
	d := New(Options{PageSource: pageSource})

	old := manifest(map[string]kbmodel.PageManifestEntry{"guides/auth": {Hash: "h1", TokenCount: 50}})
	newSnap := manifest(map[string]kbmodel.PageManifestEntry{"guides/auth": {Hash: "h2", TokenCount: 48}})

	report := d.Compare(old, newSnap, time.Now())
	require.Len(t, report.AllChanges(), 1)
	assert.Equal(t, kbmodel.SeverityBreaking, report.AllChanges()[0].Severity)
}

func TestCompareDowngradesSmallTokenDeltaToCosmetic(t *testing.T) {
	d := New(Options{})
	old := manifest(map[string]kbmodel.PageManifestEntry{"guides/intro": {Hash: "h1", TokenCount: 1000}})
	newSnap := manifest(map[string]kbmodel.PageManifestEntry{"guides/intro": {Hash: "h2", TokenCount: 1010}})

	report := d.Compare(old, newSnap, time.Now())
	require.Len(t, report.AllChanges(), 1)
	assert.Equal(t, kbmodel.SeverityCosmetic, report.AllChanges()[0].Severity)
}

func TestCompareUsesFallbackPreviewWithoutPageSource(t *testing.T) {
	d := New(Options{})
	old := manifest(map[string]kbmodel.PageManifestEntry{"overview/deprecations": {Hash: "h1", TokenCount: 40}})
	newSnap := manifest(map[string]kbmodel.PageManifestEntry{"overview/deprecations": {Hash: "h2", TokenCount: 10}})

	report := d.Compare(old, newSnap, time.Now())
	require.Len(t, report.AllChanges(), 1)
	entry := report.AllChanges()[0]
	assert.Equal(t, kbmodel.SeverityBreaking, entry.Severity)
	assert.Contains(t, entry.DiffPreview, "tokens: 40 → 10")
}
