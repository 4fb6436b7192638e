package dedup

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

type fakeSynthesizer struct {
	merged string
	calls  int
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, shorter, longer kbmodel.RenderedPage) (string, bool) {
	f.calls++
	return f.merged, f.merged != ""
}

func page(path, markdown, source string) kbmodel.RenderedPage {
	return kbmodel.RenderedPage{Path: kbmodel.PagePath(path), Markdown: markdown, Source: source}
}

func TestDedupeExactPassKeepsHighestPriority(t *testing.T) {
	pages := []kbmodel.RenderedPage{
		page("guides/a", "# Same Content\n\nBody text.", "rendered"),
		page("guides/b", "# Same Content\n\nBody text.", "repo-markdown"),
	}
	out := Dedupe(pages, 0, nil)
	require.Len(t, out, 1)
	assert.Equal(t, kbmodel.PagePath("guides/b"), out[0].Path)
}

func TestDedupeExactPassBreaksTiesByShortestPath(t *testing.T) {
	pages := []kbmodel.RenderedPage{
		page("guides/a/longer", "# X\n\nBody.", "repo-markdown"),
		page("guides/b", "# X\n\nBody.", "repo-markdown"),
	}
	out := Dedupe(pages, 0, nil)
	require.Len(t, out, 1)
	assert.Equal(t, kbmodel.PagePath("guides/b"), out[0].Path)
}

func TestDedupeNearDuplicateDropsShorterPage(t *testing.T) {
	long := "# Streaming\n\n" + strings.Repeat("Venice streaming responses use server-sent events. ", 20)
	short := "# Streaming\n\n" + strings.Repeat("Venice streaming responses use server-sent events. ", 10)

	pages := []kbmodel.RenderedPage{
		page("guides/streaming", long, "repo-markdown"),
		page("guides/streaming-duplicate", short, "rendered"),
	}
	out := Dedupe(pages, 0.5, nil)
	require.Len(t, out, 1)
	assert.Equal(t, kbmodel.PagePath("guides/streaming"), out[0].Path)
}

func TestDedupeNearDuplicateUsesSynthesizerBeforeDropping(t *testing.T) {
	long := "# Streaming\n\n" + strings.Repeat("Venice streaming responses use server-sent events. ", 20)
	short := "# Streaming\n\n" + strings.Repeat("Venice streaming responses use server-sent events. ", 10)

	pages := []kbmodel.RenderedPage{
		page("guides/streaming", long, "repo-markdown"),
		page("guides/streaming-duplicate", short, "rendered"),
	}
	synth := &fakeSynthesizer{merged: "# Streaming\n\nmerged synthesis body."}
	out := DedupeWithSynthesis(context.Background(), pages, 0.5, synth, nil)

	require.Len(t, out, 1)
	assert.Equal(t, kbmodel.PagePath("guides/streaming"), out[0].Path)
	assert.Equal(t, "# Streaming\n\nmerged synthesis body.", out[0].Markdown)
	assert.Equal(t, 1, synth.calls)
}

func TestDedupeKeepsDissimilarPages(t *testing.T) {
	pages := []kbmodel.RenderedPage{
		page("guides/a", "# Authentication\n\nUse your API key in the header.", "repo-markdown"),
		page("guides/b", "# Rate Limits\n\nRequests are limited per minute per key.", "repo-markdown"),
	}
	out := Dedupe(pages, 0.8, nil)
	assert.Len(t, out, 2)
}
