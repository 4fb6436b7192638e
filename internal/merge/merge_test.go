package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

func TestMergeUsesRepoMarkdownAndBreadcrumb(t *testing.T) {
	in := Inputs{
		Pages: []kbmodel.CanonicalPage{
			{Path: "guides/getting-started", Title: "Getting Started", Breadcrumb: []string{"Guides"}},
		},
		RepoMarkdown: map[string]string{
			"guides/getting-started": "---\ntitle: Getting Started\ntags: [guides, quickstart]\n---\nWelcome to Venice.\n",
		},
	}

	pages := Merge(in, nil)
	require.Len(t, pages, 1)
	assert.Equal(t, "repo-markdown", pages[0].Source)
	assert.Contains(t, pages[0].Markdown, "*Guides*")
	assert.Contains(t, pages[0].Markdown, "Welcome to Venice.")
	assert.Equal(t, []string{"guides", "quickstart"}, pages[0].Tags)
}

func TestMergeSynthesizesStubWhenRepoMarkdownMissing(t *testing.T) {
	in := Inputs{
		Pages: []kbmodel.CanonicalPage{{Path: "overview/changelog", Title: "Changelog"}},
	}
	pages := Merge(in, nil)
	require.Len(t, pages, 1)
	assert.Equal(t, "stub", pages[0].Source)
	assert.Contains(t, pages[0].Markdown, "No repository source found")
}

func TestMergeFillsPlaceholderFromRendered(t *testing.T) {
	in := Inputs{
		Pages: []kbmodel.CanonicalPage{
			{Path: "models/available", Title: "Available Models", ExternalURL: "https://docs.example.com/models"},
		},
		RepoMarkdown: map[string]string{
			"models/available": `<div id="models-placeholder"></div>`,
		},
		RenderedByURL: map[string]RenderedContent{
			"https://docs.example.com/models": {
				RawHTML: "<body><main><p>venice-large is available.</p></main></body>",
				BaseURL: "https://docs.example.com/models",
			},
		},
	}
	pages := Merge(in, nil)
	require.Len(t, pages, 1)
	assert.Equal(t, "rendered", pages[0].Source)
	assert.Contains(t, pages[0].Markdown, "venice-large is available.")
}

func TestMergeFallsBackToLiveEndpointSlotThenSentinel(t *testing.T) {
	liveIn := Inputs{
		Pages: []kbmodel.CanonicalPage{
			{Path: "models/available", ExternalURL: "https://docs.example.com/models"},
		},
		RepoMarkdown: map[string]string{
			"models/available": `<div id="models-placeholder"></div>`,
		},
		Live: &LiveEndpointSlot{Path: "models/available", Markdown: "- venice-large\n- venice-small"},
	}
	pages := Merge(liveIn, nil)
	require.Len(t, pages, 1)
	assert.Equal(t, "live-endpoint", pages[0].Source)
	assert.Contains(t, pages[0].Markdown, "venice-large")

	fallbackIn := Inputs{
		Pages: []kbmodel.CanonicalPage{{Path: "models/available"}},
		RepoMarkdown: map[string]string{
			"models/available": `<div id="models-placeholder"></div>`,
		},
	}
	pages = Merge(fallbackIn, nil)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Markdown, placeholderFallback)
}

func TestMergeMatchesAPIReferenceEndpoint(t *testing.T) {
	in := Inputs{
		Pages: []kbmodel.CanonicalPage{
			{Path: "api-reference/endpoint/chat-completions", Title: "Chat Completions"},
		},
		RepoMarkdown: map[string]string{
			"api-reference/endpoint/chat-completions": "Use this endpoint to chat.",
		},
		Endpoints: []kbmodel.EndpointRecord{
			{
				Method: kbmodel.MethodPost,
				Path:   "/chat/completions",
				Parameters: []kbmodel.Parameter{
					{Name: "model", Location: kbmodel.LocationQuery, Required: true},
				},
			},
		},
	}
	pages := Merge(in, nil)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Markdown, "## API Specification")
	assert.Contains(t, pages[0].Markdown, "| model | query | - | yes |")
}
