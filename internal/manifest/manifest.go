// Package manifest implements the manifest loader: it walks the
// navigation manifest tree and cross-references the URL-list manifest to
// produce the canonical page list that drives every later stage.
package manifest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

// NavNode is one node of the arbitrarily-nested navigation tree: either a
// group (Pages holds child nodes or leaf page references) or a leaf.
type NavNode struct {
	Group string            `json:"group,omitempty"`
	Tab   string            `json:"tab,omitempty"`
	Pages []json.RawMessage `json:"pages,omitempty"`
}

// URLListEntry is one entry of the flat URL-list manifest.
type URLListEntry struct {
	Path        string `json:"path"`
	ExternalURL string `json:"url"`
	Description string `json:"description"`
}

// NavigationDoc is the top-level navigation manifest shape.
type NavigationDoc struct {
	Navigation []NavNode `json:"navigation"`
}

// Load parses the navigation manifest and URL-list manifest and unions
// them into one ordered canonical page list: navigation order first
// (pre-order traversal), then URL-list-only entries appended in URL-list
// order with an empty breadcrumb and the URL-list description as title.
func Load(navigationJSON, urlListJSON []byte) ([]kbmodel.CanonicalPage, error) {
	var nav NavigationDoc
	if len(navigationJSON) > 0 {
		if err := json.Unmarshal(navigationJSON, &nav); err != nil {
			return nil, fmt.Errorf("failed to parse navigation manifest: %w", err)
		}
	}

	urlList, err := parseURLList(urlListJSON)
	if err != nil {
		return nil, err
	}

	indexByPath := make(map[kbmodel.PagePath]int)
	var ordered []kbmodel.CanonicalPage

	var walk func(nodes []NavNode, breadcrumb []string)
	walk = func(nodes []NavNode, breadcrumb []string) {
		for _, node := range nodes {
			label := node.Group
			if label == "" {
				label = node.Tab
			}
			childBreadcrumb := breadcrumb
			if label != "" {
				childBreadcrumb = append(append([]string{}, breadcrumb...), label)
			}

			for _, raw := range node.Pages {
				var asString string
				if err := json.Unmarshal(raw, &asString); err == nil {
					page := kbmodel.CanonicalPage{
						Path:       kbmodel.PagePath(asString),
						Title:      titleFromPath(asString),
						Breadcrumb: append([]string{}, childBreadcrumb...),
					}
					indexByPath[page.Path] = len(ordered)
					ordered = append(ordered, page)
					continue
				}

				var childNode NavNode
				if err := json.Unmarshal(raw, &childNode); err == nil && (childNode.Group != "" || childNode.Tab != "" || len(childNode.Pages) > 0) {
					walk([]NavNode{childNode}, childBreadcrumb)
				}
			}
		}
	}
	walk(nav.Navigation, nil)

	for _, entry := range urlList {
		path := kbmodel.PagePath(entry.Path)
		if idx, ok := indexByPath[path]; ok {
			// The richer record wins: fill in whichever fields navigation left blank.
			if ordered[idx].ExternalURL == "" {
				ordered[idx].ExternalURL = entry.ExternalURL
			}
			if ordered[idx].Description == "" {
				ordered[idx].Description = entry.Description
			}
			continue
		}
		page := kbmodel.CanonicalPage{
			Path:        path,
			Title:       entry.Description,
			ExternalURL: entry.ExternalURL,
			Description: entry.Description,
		}
		indexByPath[path] = len(ordered)
		ordered = append(ordered, page)
	}

	return ordered, nil
}

// urlListLinePattern matches one markdown-link line of the plain-text
// URL-list form: "- [Title](https://host/path): description".
var urlListLinePattern = regexp.MustCompile(`^[-*]\s*\[([^\]]*)\]\(([^)]+)\)\s*:?\s*(.*)$`)

// parseURLList accepts the URL-list manifest in either of its two
// published forms: a JSON array of {path,url,description} objects, or a
// plain-text markdown link list with one page per line. Lines that match
// neither form are skipped rather than failing the whole manifest.
func parseURLList(raw []byte) ([]URLListEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var urlList []URLListEntry
		if err := json.Unmarshal(raw, &urlList); err != nil {
			return nil, fmt.Errorf("failed to parse URL-list manifest: %w", err)
		}
		return urlList, nil
	}

	var urlList []URLListEntry
	for _, line := range strings.Split(trimmed, "\n") {
		match := urlListLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		title, rawURL, description := match[1], match[2], strings.TrimSpace(match[3])
		if description == "" {
			description = title
		}
		urlList = append(urlList, URLListEntry{
			Path:        pathFromURL(rawURL),
			ExternalURL: rawURL,
			Description: description,
		})
	}
	return urlList, nil
}

// pathFromURL derives a canonical page path from a documentation URL by
// taking its path component without the leading slash or any extension.
func pathFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Trim(rawURL, "/")
	}
	p := strings.Trim(u.Path, "/")
	if idx := strings.LastIndex(p, "."); idx > strings.LastIndex(p, "/") {
		p = p[:idx]
	}
	return p
}

func titleFromPath(path string) string {
	base := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		base = path[idx+1:]
	}
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return strings.Title(base)
}
