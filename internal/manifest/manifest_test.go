package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

func TestLoadUnionsNavigationAndURLList(t *testing.T) {
	navJSON := []byte(`{
		"navigation": [
			{"group": "Guides", "pages": [
				"guides/getting-started",
				{"group": "Advanced", "pages": ["guides/advanced/streaming"]}
			]}
		]
	}`)
	urlListJSON := []byte(`[
		{"path": "guides/getting-started", "url": "https://docs.example.com/guides/getting-started", "description": "Getting Started"},
		{"path": "overview/changelog", "url": "https://docs.example.com/changelog", "description": "Changelog"}
	]`)

	pages, err := Load(navJSON, urlListJSON)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, kbmodel.PagePath("guides/getting-started"), pages[0].Path)
	assert.Equal(t, []string{"Guides"}, pages[0].Breadcrumb)
	assert.Equal(t, "https://docs.example.com/guides/getting-started", pages[0].ExternalURL, "URL-list fields must fill in navigation-only entries")

	assert.Equal(t, kbmodel.PagePath("guides/advanced/streaming"), pages[1].Path)
	assert.Equal(t, []string{"Guides", "Advanced"}, pages[1].Breadcrumb)

	assert.Equal(t, kbmodel.PagePath("overview/changelog"), pages[2].Path, "URL-list-only entries are appended after navigation order")
	assert.Empty(t, pages[2].Breadcrumb)
	assert.Equal(t, "Changelog", pages[2].Title)
}

func TestLoadHandlesEmptyManifests(t *testing.T) {
	pages, err := Load(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestLoadParsesPlainTextURLList(t *testing.T) {
	navJSON := []byte(`{"navigation": []}`)
	urlListText := []byte(`# Venice docs
- [Getting Started](https://docs.example.com/guides/getting-started): Start here
- [Changelog](https://docs.example.com/overview/changelog.html)
not a link line
`)

	pages, err := Load(navJSON, urlListText)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, kbmodel.PagePath("guides/getting-started"), pages[0].Path)
	assert.Equal(t, "Start here", pages[0].Description)
	assert.Equal(t, "https://docs.example.com/guides/getting-started", pages[0].ExternalURL)

	assert.Equal(t, kbmodel.PagePath("overview/changelog"), pages[1].Path, "extensions are stripped from URL-derived paths")
	assert.Equal(t, "Changelog", pages[1].Title, "the link text stands in for a missing description")
}
