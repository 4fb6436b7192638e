// Package mdconvert lowers Mintlify-style MDX components embedded in
// repo-sourced markdown into plain markdown. Each transform is a
// tolerant regex pass, applied in a fixed order, so the output is a
// stable function of the input.
package mdconvert

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n`)
	titlePattern       = regexp.MustCompile(`(?m)^title:\s*["']?([^"'\n]+)["']?\s*$`)

	codeGroupOpen  = regexp.MustCompile(`<CodeGroup[^>]*?/?>`)
	codeGroupClose = regexp.MustCompile(`</CodeGroup\s*>`)

	stepsOpen  = regexp.MustCompile(`<Steps[^>]*?/?>`)
	stepsClose = regexp.MustCompile(`</Steps\s*>`)
	stepOpen   = regexp.MustCompile(`<Step\s+[^>]*?title=["']([^"']*)["'][^>]*?/?>`)
	stepClose  = regexp.MustCompile(`</Step\s*>`)

	// noteLike matches Note/Warning/Info/Tip wrapper pairs with their body.
	noteLike = regexp.MustCompile(`(?s)<(Note|Warning|Info|Tip)[^>]*?>(.*?)</(?:Note|Warning|Info|Tip)\s*>`)

	cardGroupOpen  = regexp.MustCompile(`<CardGroup[^>]*?/?>`)
	cardGroupClose = regexp.MustCompile(`</CardGroup\s*>`)
	cardPattern    = regexp.MustCompile(`(?s)<Card\s+[^>]*?title=["']([^"']*)["'][^>]*?href=["']([^"']*)["'][^>]*?>(.*?)</Card\s*>`)
	cardPatternAlt = regexp.MustCompile(`(?s)<Card\s+[^>]*?href=["']([^"']*)["'][^>]*?title=["']([^"']*)["'][^>]*?>(.*?)</Card\s*>`)

	tabsOpen  = regexp.MustCompile(`<Tabs[^>]*?/?>`)
	tabsClose = regexp.MustCompile(`</Tabs\s*>`)
	tabOpen   = regexp.MustCompile(`<Tab\s+[^>]*?title=["']([^"']*)["'][^>]*?/?>`)
	tabClose  = regexp.MustCompile(`</Tab\s*>`)

	accordionPattern = regexp.MustCompile(`(?s)<Accordion\s+[^>]*?title=["']([^"']*)["'][^>]*?>(.*?)</Accordion\s*>`)

	placeholderPattern = regexp.MustCompile(`(?s)<div[^>]*?id=["']([^"']*-placeholder)["'][^>]*?>.*?</div>`)

	noteLabels = map[string]string{
		"Note":    "Note:",
		"Warning": "Warning:",
		"Info":    "Info:",
		"Tip":     "Tip:",
	}

	// simpleStripTags are stripped, keeping only their inner text.
	simpleStripTags = []string{"Tooltip", "Frame", "Icon", "ParamField", "ResponseField"}
)

// Convert lowers the component set described in the repo-markdown
// component table into plain markdown.
func Convert(source string) string {
	md, title := extractFrontmatter(source)

	md = convertCodeGroup(md)
	md = convertSteps(md)
	md = convertNoteLike(md)
	md = convertCards(md)
	md = convertTabs(md)
	md = convertAccordion(md)
	md = stripSimpleTags(md)
	md = convertPlaceholders(md)

	if title != "" && !strings.Contains(firstNonEmptyLine(md), "# ") {
		md = fmt.Sprintf("# %s\n\n%s", title, md)
	}
	return md
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// extractFrontmatter splits a leading "---\n...\n---\n" YAML block off
// the body and returns the body plus the frontmatter's title, if any.
func extractFrontmatter(content string) (body string, title string) {
	match := frontmatterPattern.FindStringSubmatch(content)
	if match == nil {
		return content, ""
	}
	frontmatter := match[1]
	rest := content[len(match[0]):]

	if t := titlePattern.FindStringSubmatch(frontmatter); t != nil {
		title = strings.TrimSpace(t[1])
	}
	return rest, title
}

func convertCodeGroup(content string) string {
	content = codeGroupOpen.ReplaceAllString(content, "")
	content = codeGroupClose.ReplaceAllString(content, "")
	return content
}

func convertSteps(content string) string {
	step := 0
	content = stepOpen.ReplaceAllStringFunc(content, func(m string) string {
		step++
		title := stepOpen.FindStringSubmatch(m)[1]
		return fmt.Sprintf("### Step %d: %s\n", step, title)
	})
	content = stepClose.ReplaceAllString(content, "")
	content = stepsOpen.ReplaceAllString(content, "")
	content = stepsClose.ReplaceAllString(content, "")
	return content
}

func convertNoteLike(content string) string {
	return noteLike.ReplaceAllStringFunc(content, func(m string) string {
		parts := noteLike.FindStringSubmatch(m)
		tag, body := parts[1], strings.TrimSpace(parts[2])
		return fmt.Sprintf("> **%s** %s", noteLabels[tag], body)
	})
}

func convertCards(content string) string {
	render := func(title, href, body string) string {
		return fmt.Sprintf("- **[%s](%s)** — %s", title, href, strings.TrimSpace(body))
	}
	content = cardPattern.ReplaceAllStringFunc(content, func(m string) string {
		p := cardPattern.FindStringSubmatch(m)
		return render(p[1], p[2], p[3])
	})
	content = cardPatternAlt.ReplaceAllStringFunc(content, func(m string) string {
		p := cardPatternAlt.FindStringSubmatch(m)
		return render(p[2], p[1], p[3])
	})
	content = cardGroupOpen.ReplaceAllString(content, "")
	content = cardGroupClose.ReplaceAllString(content, "")
	return content
}

func convertTabs(content string) string {
	content = tabOpen.ReplaceAllStringFunc(content, func(m string) string {
		title := tabOpen.FindStringSubmatch(m)[1]
		return fmt.Sprintf("#### %s\n", title)
	})
	content = tabClose.ReplaceAllString(content, "\n")
	content = tabsOpen.ReplaceAllString(content, "")
	content = tabsClose.ReplaceAllString(content, "")
	return content
}

func convertAccordion(content string) string {
	return accordionPattern.ReplaceAllStringFunc(content, func(m string) string {
		p := accordionPattern.FindStringSubmatch(m)
		title, body := p[1], strings.TrimSpace(p[2])
		return fmt.Sprintf("<details><summary>%s</summary>\n%s\n</details>", title, body)
	})
}

func stripSimpleTags(content string) string {
	for _, tag := range simpleStripTags {
		open := regexp.MustCompile(fmt.Sprintf(`<%s[^>]*?/?>`, tag))
		closeTag := regexp.MustCompile(fmt.Sprintf(`</%s\s*>`, tag))
		content = open.ReplaceAllString(content, "")
		content = closeTag.ReplaceAllString(content, "")
	}
	return content
}

func convertPlaceholders(content string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(m string) string {
		id := placeholderPattern.FindStringSubmatch(m)[1]
		return fmt.Sprintf("<!-- PLACEHOLDER: %s -->", id)
	})
}
