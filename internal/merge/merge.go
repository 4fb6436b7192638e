// Package merge composes one RenderedPage per canonical page by
// folding together the repo-markdown, spec, rendered-page and
// live-endpoint sources according to a fixed priority order.
package merge

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/htmlconvert"
	"github.com/ternarybob/venicekb/internal/kbmodel"
	"github.com/ternarybob/venicekb/internal/mdconvert"
	"github.com/ternarybob/venicekb/internal/specparse"
)

// PriorityOrder is the merge precedence used whenever two sources
// claim the same slot for the same page: spec beats repo markdown,
// which beats rendered content, which beats the live endpoint.
var PriorityOrder = []string{"spec", "repo-markdown", "rendered", "live-endpoint"}

const apiReferencePrefix = "api-reference/endpoint/"

const placeholderFallback = "[Dynamic content — see live docs]"

var placeholderPattern = regexp.MustCompile(`<!-- PLACEHOLDER: ([^ ]+) -->`)

// RenderedContent is a rendered-page fetch result addressable by the
// canonical page's external URL.
type RenderedContent struct {
	RawHTML string
	BaseURL string
}

// LiveEndpointSlot binds the live model-listing markdown to the one
// canonical page path it may fill.
type LiveEndpointSlot struct {
	Path     kbmodel.PagePath
	Markdown string
}

// Inputs bundles every source the merger folds together.
type Inputs struct {
	Pages         []kbmodel.CanonicalPage
	RepoMarkdown  map[string]string // canonical path -> raw MDX/markdown
	Endpoints     []kbmodel.EndpointRecord
	RenderedByURL map[string]RenderedContent
	Live          *LiveEndpointSlot
}

// Merge produces one RenderedPage per input page, in the same order.
func Merge(in Inputs, logger arbor.ILogger) []kbmodel.RenderedPage {
	endpointsBySlug := indexEndpointsBySlug(in.Endpoints)

	pages := make([]kbmodel.RenderedPage, 0, len(in.Pages))
	for _, page := range in.Pages {
		pages = append(pages, mergePage(page, in, endpointsBySlug, logger))
	}
	return pages
}

func mergePage(page kbmodel.CanonicalPage, in Inputs, endpointsBySlug map[string]kbmodel.EndpointRecord, logger arbor.ILogger) kbmodel.RenderedPage {
	var b strings.Builder
	source := "stub"

	raw, found := in.RepoMarkdown[string(page.Path)]
	var tags []string
	if found {
		source = "repo-markdown"
		converted, pageTags := convertWithTags(raw)
		tags = pageTags
		b.WriteString(converted)
	} else {
		title := page.Title
		if title == "" {
			title = titleFromPath(string(page.Path))
		}
		fmt.Fprintf(&b, "# %s\n\n_No repository source found for this page._\n", title)
	}

	body := b.String()

	if len(page.Breadcrumb) > 0 {
		body = fmt.Sprintf("*%s*\n\n%s", strings.Join(page.Breadcrumb, " > "), body)
	}

	body, usedSource := fillPlaceholders(body, page, in, source, logger)
	if usedSource != "" {
		source = usedSource
	}

	if strings.HasPrefix(string(page.Path), apiReferencePrefix) {
		if rec, ok := matchEndpoint(string(page.Path), endpointsBySlug); ok {
			body = strings.TrimRight(body, "\n") + "\n\n## API Specification\n\n" + specparse.RenderTables(rec)
			if source == "stub" {
				source = "spec"
			}
		}
	}

	title := page.Title
	if title == "" {
		title = firstHeading(body)
	}

	return kbmodel.RenderedPage{
		Path:     page.Path,
		Markdown: strings.TrimRight(body, "\n") + "\n",
		Title:    title,
		Tags:     tags,
		Source:   source,
	}
}

// fillPlaceholders replaces every <!-- PLACEHOLDER: id --> sentinel
// with converted rendered content matched by the page's external
// URL. Rendered content outranks the live-endpoint slot, which
// outranks the fallback text; a missing match is never dropped
// silently.
func fillPlaceholders(body string, page kbmodel.CanonicalPage, in Inputs, currentSource string, logger arbor.ILogger) (string, string) {
	if !placeholderPattern.MatchString(body) {
		return body, ""
	}

	usedSource := ""
	replaced := placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		id := placeholderPattern.FindStringSubmatch(match)[1]

		if rendered, ok := in.RenderedByURL[page.ExternalURL]; ok {
			md, err := htmlconvert.Convert(rendered.RawHTML, rendered.BaseURL)
			if err == nil {
				usedSource = "rendered"
				return strings.TrimSpace(md)
			}
			if logger != nil {
				logger.Warn().Err(err).Str("placeholder", id).Str("path", string(page.Path)).Msg("failed to convert rendered placeholder content")
			}
		}

		if in.Live != nil && in.Live.Path == page.Path && in.Live.Markdown != "" {
			usedSource = "live-endpoint"
			return strings.TrimSpace(in.Live.Markdown)
		}

		return placeholderFallback
	})

	return replaced, usedSource
}

func convertWithTags(raw string) (string, []string) {
	converted := mdconvert.Convert(raw)
	return converted, extractTags(raw)
}

var tagsFrontmatterPattern = regexp.MustCompile(`(?m)^tags:\s*\[([^\]]*)\]\s*$`)

// extractTags pulls a frontmatter "tags: [a, b]" line, per the
// snapshot manifest's tagging requirement.
func extractTags(raw string) []string {
	match := tagsFrontmatterPattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(match[1], ",") {
		tag := strings.Trim(strings.TrimSpace(part), `"'`)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// matchEndpoint normalizes the page's basename and compares it against
// every endpoint path slugified ("/" and "_" -> "-"), matching on a
// normalized suffix comparison.
func matchEndpoint(pagePath string, bySlug map[string]kbmodel.EndpointRecord) (kbmodel.EndpointRecord, bool) {
	base := slugify(path.Base(pagePath))
	// Slugs are checked in sorted order so that a page which could match
	// more than one endpoint always resolves to the same record.
	slugs := make([]string, 0, len(bySlug))
	for slug := range bySlug {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		if strings.HasSuffix(slug, base) || strings.HasSuffix(base, slug) {
			return bySlug[slug], true
		}
	}
	return kbmodel.EndpointRecord{}, false
}

func indexEndpointsBySlug(endpoints []kbmodel.EndpointRecord) map[string]kbmodel.EndpointRecord {
	out := make(map[string]kbmodel.EndpointRecord, len(endpoints))
	for _, rec := range endpoints {
		out[slugify(rec.Path)] = rec
	}
	return out
}

func slugify(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Trim(s, "-")
}

func titleFromPath(p string) string {
	base := path.Base(p)
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return strings.Title(base)
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
