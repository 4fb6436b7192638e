package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/ternarybob/venicekb/internal/fetch/githubsrc"
)

// repoMarkdownByPath indexes fetched repo files by canonical page path,
// derived by stripping the configured subtree prefix and file extension
// from each file's repo-relative path.
func repoMarkdownByPath(files []githubsrc.File, subtree string) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[canonicalPathFromFile(f.Path, subtree)] = string(f.Content)
	}
	return out
}

func canonicalPathFromFile(filePath, subtree string) string {
	p := filePath
	if subtree != "" {
		prefix := strings.TrimSuffix(subtree, "/") + "/"
		p = strings.TrimPrefix(p, prefix)
	}
	ext := filepath.Ext(p)
	return strings.TrimSuffix(p, ext)
}
