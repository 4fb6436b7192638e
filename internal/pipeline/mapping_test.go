package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/venicekb/internal/fetch/githubsrc"
)

func TestCanonicalPathFromFile(t *testing.T) {
	cases := []struct {
		filePath string
		subtree  string
		want     string
	}{
		{"docs/guides/getting-started.mdx", "docs", "guides/getting-started"},
		{"docs/api-reference/endpoint/chat/completions.md", "docs/", "api-reference/endpoint/chat/completions"},
		{"guides/streaming.md", "", "guides/streaming"},
		{"docs/overview.md", "other", "docs/overview"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, canonicalPathFromFile(c.filePath, c.subtree), "file %q subtree %q", c.filePath, c.subtree)
	}
}

func TestRepoMarkdownByPathKeysBySubtreeRelativePath(t *testing.T) {
	files := []githubsrc.File{
		{Path: "docs/guides/streaming.mdx", Content: []byte("# Streaming")},
		{Path: "docs/models/overview.md", Content: []byte("# Models")},
	}
	byPath := repoMarkdownByPath(files, "docs")
	assert.Equal(t, "# Streaming", byPath["guides/streaming"])
	assert.Equal(t, "# Models", byPath["models/overview"])
}
