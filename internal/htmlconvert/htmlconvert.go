// Package htmlconvert turns a rendered HTML fragment into clean
// markdown. It strips boilerplate elements, prefers a main content
// root, and converts what remains to ATX-heading markdown.
package htmlconvert

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	collapseBlankLines = regexp.MustCompile(`\n{3,}`)
	emptyLinkPattern   = regexp.MustCompile(`\[\]\([^)]*\)`)
)

// boilerplateSelectors are removed before conversion regardless of
// whether a main-content root is found.
const boilerplateSelectors = "script, style, nav, footer, header, svg"

// Convert strips boilerplate from rawHTML, prefers <main> or <article>
// as the conversion root, and renders the result as markdown.
func Convert(rawHTML, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	doc.Find(boilerplateSelectors).Remove()

	root := mainContentRoot(doc)
	cleanHTML, err := root.Html()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(cleanHTML)
	if err != nil {
		return "", err
	}

	return postprocess(markdown), nil
}

// mainContentRoot prefers <main> or <article>; falls back to <body>,
// then the document itself.
func mainContentRoot(doc *goquery.Document) *goquery.Selection {
	if main := doc.Find("main, article, [role=main]").First(); main.Length() > 0 {
		return main
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

func postprocess(markdown string) string {
	markdown = emptyLinkPattern.ReplaceAllString(markdown, "")
	markdown = collapseBlankLines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown) + "\n"
}
