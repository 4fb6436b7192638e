package pipeline

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

// headerPattern strips the writer's fixed-order "---\n...\n---\n\n"
// header so a diff preview compares body content only, the same shape
// merge/dedup operate on.
var headerPattern = regexp.MustCompile(`(?s)^---\n.*?\n---\n\n`)

// loadPreviousMarkdown reads each surviving page's markdown as it stood
// in outputDir before this build's writer.Write call overwrites it.
// This must run before Write; the writer always rewrites files in
// place, so there is no other way to recover the prior body for the
// differ's textual-signal pass.
func loadPreviousMarkdown(outputDir string, pages []kbmodel.RenderedPage) map[string]string {
	out := make(map[string]string, len(pages))
	for _, p := range pages {
		dest := filepath.Join(outputDir, filepath.FromSlash(string(p.Path))+".md")
		data, err := os.ReadFile(dest)
		if err != nil {
			continue
		}
		out[string(p.Path)] = headerPattern.ReplaceAllString(string(data), "")
	}
	return out
}
