// Package changelog renders a sequence of diff reports as both
// markdown and JSON.
package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

const informationalTruncateAt = 10

var severitySections = []struct {
	severity kbmodel.Severity
	heading  string
}{
	{kbmodel.SeverityBreaking, "🚨 Breaking"},
	{kbmodel.SeverityImportant, "⚠️ Important"},
	{kbmodel.SeverityInformational, "ℹ️ Informational"},
	{kbmodel.SeverityCosmetic, "🎨 Cosmetic"},
}

// Render produces the full changelog markdown for reports, newest
// first (callers are expected to pass reports already in that order).
func Render(reports []kbmodel.DiffReport) string {
	var b strings.Builder
	for _, report := range reports {
		renderReport(&b, report)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderReport(b *strings.Builder, report kbmodel.DiffReport) {
	fmt.Fprintf(b, "## %s\n\n", report.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(b, "%s\n\n", report.Summary)

	for _, section := range severitySections {
		entries := report.Changes[section.severity]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", section.heading)

		limit := len(entries)
		truncated := false
		if section.severity == kbmodel.SeverityInformational && len(entries) > informationalTruncateAt {
			limit = informationalTruncateAt
			truncated = true
		}

		for _, entry := range entries[:limit] {
			fmt.Fprintf(b, "- **%s** `%s` — %s\n", strings.ToUpper(string(entry.ChangeType)), entry.Path, entry.Details)
		}
		if truncated {
			fmt.Fprintf(b, "- …and %d more\n", len(entries)-limit)
		}
		b.WriteString("\n")
	}
}

// RenderJSON produces the machine-readable array-of-reports form.
func RenderJSON(reports []kbmodel.DiffReport) ([]byte, error) {
	return json.MarshalIndent(reports, "", "  ")
}

// Append prepends a new report to previous (already newest-first) and
// writes both the markdown and JSON changelogs, rewriting both files.
func Append(mdPath, jsonPath string, newReport kbmodel.DiffReport, previous []kbmodel.DiffReport) error {
	reports := append([]kbmodel.DiffReport{newReport}, previous...)

	if err := os.WriteFile(mdPath, []byte(Render(reports)), 0o644); err != nil {
		return fmt.Errorf("write changelog markdown: %w", err)
	}

	jsonData, err := RenderJSON(reports)
	if err != nil {
		return fmt.Errorf("marshal changelog json: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("write changelog json: %w", err)
	}
	return nil
}

// LoadPrevious reads an existing changelog JSON file, returning an
// empty slice if it does not exist yet.
func LoadPrevious(jsonPath string) ([]kbmodel.DiffReport, error) {
	data, err := os.ReadFile(jsonPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read changelog json: %w", err)
	}
	var reports []kbmodel.DiffReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("parse changelog json: %w", err)
	}
	return reports, nil
}
