// Package differ compares two snapshots' page manifests and produces
// a severity-classified DiffReport.
package differ

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

// RuleEntry is one row of the path-substring -> baseline-severity rule
// table, checked in order (first match wins).
type RuleEntry struct {
	Substring string
	Severity  kbmodel.Severity
}

// DefaultRuleTable maps path substrings to baseline severities,
// checked in order with first match winning.
var DefaultRuleTable = []RuleEntry{
	{"overview/deprecations", kbmodel.SeverityBreaking},
	{"api-reference/endpoint/", kbmodel.SeverityImportant},
	{"api-reference/error-codes", kbmodel.SeverityImportant},
	{"rate-limiting", kbmodel.SeverityImportant},
	{"overview/pricing", kbmodel.SeverityImportant},
	{"models/", kbmodel.SeverityInformational},
	{"guides/", kbmodel.SeverityInformational},
	{"overview/beta-models", kbmodel.SeverityInformational},
	{"overview/privacy", kbmodel.SeverityInformational},
}

// breakingSignals upgrade a change to breaking when found (lower-cased)
// in its diff preview text.
var breakingSignals = []string{
	"removed",
	"deprecated",
	"no longer",
	"breaking",
	"required parameter",
	"schema change",
	"endpoint removed",
	"status code changed",
	"authentication changed",
}

const modifiedTokenDeltaThreshold = 0.05
const diffPreviewMaxLen = 500

// PageSource loads a page's rendered markdown from each side of a
// comparison, for builds that want textual-signal severity upgrades; a
// nil Options.PageSource disables this and the differ falls back to a
// token/hash stand-in preview.
type PageSource struct {
	Old func(path string) (string, bool)
	New func(path string) (string, bool)
}

// Options configures a Differ beyond the default rule table.
type Options struct {
	RuleTable  []RuleEntry
	PageSource *PageSource
}

// Differ compares snapshot page manifests.
type Differ struct {
	ruleTable  []RuleEntry
	pageSource *PageSource
}

// New returns a Differ; an empty Options uses DefaultRuleTable and
// disables markdown-backed previews.
func New(opts Options) *Differ {
	ruleTable := opts.RuleTable
	if ruleTable == nil {
		ruleTable = DefaultRuleTable
	}
	return &Differ{ruleTable: ruleTable, pageSource: opts.PageSource}
}

// Compare builds the full diff report between old and new snapshots.
func (d *Differ) Compare(old, newSnap kbmodel.Snapshot, generatedAt time.Time) kbmodel.DiffReport {
	oldPages := old.PageManifest
	newPages := newSnap.PageManifest

	changes := map[kbmodel.Severity][]kbmodel.ChangeEntry{}
	stats := kbmodel.DiffStats{}

	allPaths := unionKeys(oldPages, newPages)
	sort.Strings(allPaths)

	for _, path := range allPaths {
		oldEntry, hasOld := oldPages[path]
		newEntry, hasNew := newPages[path]

		switch {
		case hasNew && !hasOld:
			entry := d.buildEntry(kbmodel.ChangeAdded, path, kbmodel.PageManifestEntry{}, newEntry)
			changes[entry.Severity] = append(changes[entry.Severity], entry)
			stats.Added++
		case hasOld && !hasNew:
			entry := d.buildEntry(kbmodel.ChangeRemoved, path, oldEntry, kbmodel.PageManifestEntry{})
			changes[entry.Severity] = append(changes[entry.Severity], entry)
			stats.Removed++
		case oldEntry.Hash == newEntry.Hash:
			stats.Unchanged++
		default:
			entry := d.buildEntry(kbmodel.ChangeModified, path, oldEntry, newEntry)
			changes[entry.Severity] = append(changes[entry.Severity], entry)
			stats.Modified++
		}
	}

	return kbmodel.DiffReport{
		GeneratedAt:        generatedAt,
		PreviousSnapshotID: old.SnapshotID,
		CurrentSnapshotID:  newSnap.SnapshotID,
		Summary:            summaryLine(changes, stats),
		Stats:              stats,
		Changes:            changes,
	}
}

func (d *Differ) buildEntry(changeType kbmodel.ChangeType, path string, oldEntry, newEntry kbmodel.PageManifestEntry) kbmodel.ChangeEntry {
	preview := d.diffPreview(path, oldEntry, newEntry)
	severity := d.classify(changeType, path, oldEntry, newEntry, preview)

	title := newEntry.Title
	if title == "" {
		title = oldEntry.Title
	}

	return kbmodel.ChangeEntry{
		ChangeType:  changeType,
		Severity:    severity,
		Path:        path,
		Section:     section(path),
		Title:       title,
		Details:     preview,
		OldHash:     oldEntry.Hash,
		NewHash:     newEntry.Hash,
		OldTokens:   oldEntry.TokenCount,
		NewTokens:   newEntry.TokenCount,
		DiffPreview: preview,
	}
}

// classify applies the baseline rule table, the added/removed
// overrides, the textual-signal breaking upgrade, and the small-delta
// cosmetic downgrade, in that order.
func (d *Differ) classify(changeType kbmodel.ChangeType, path string, oldEntry, newEntry kbmodel.PageManifestEntry, preview string) kbmodel.Severity {
	baseline := d.baselineSeverity(path)

	switch changeType {
	case kbmodel.ChangeAdded:
		if baseline == kbmodel.SeverityCosmetic {
			baseline = kbmodel.SeverityInformational
		}
	case kbmodel.ChangeRemoved:
		if isEndpointPath(path) {
			baseline = kbmodel.SeverityBreaking
		} else if severityRank(baseline) > severityRank(kbmodel.SeverityImportant) {
			// Removal is at least important; a stronger path rule still wins.
			baseline = kbmodel.SeverityImportant
		}
	}

	if containsBreakingSignal(preview) {
		return kbmodel.SeverityBreaking
	}

	if changeType == kbmodel.ChangeModified && baseline == kbmodel.SeverityInformational {
		denom := math.Max(float64(oldEntry.TokenCount), 1)
		delta := math.Abs(float64(newEntry.TokenCount-oldEntry.TokenCount)) / denom
		if delta < modifiedTokenDeltaThreshold {
			return kbmodel.SeverityCosmetic
		}
	}

	return baseline
}

// isEndpointPath reports whether a removed page names the API
// surface itself: a removed page whose path names the
// API-reference or endpoint surface is always breaking, regardless of
// the baseline rule table's severity for that path.
func isEndpointPath(path string) bool {
	return strings.Contains(path, "api-reference") || strings.Contains(path, "endpoint")
}

func (d *Differ) baselineSeverity(path string) kbmodel.Severity {
	for _, rule := range d.ruleTable {
		if strings.Contains(path, rule.Substring) {
			return rule.Severity
		}
	}
	return kbmodel.SeverityCosmetic
}

// severityRank orders severities from strongest (0) to weakest, used
// to compare whether a path's own rule is "stronger" than a baseline
// override.
func severityRank(s kbmodel.Severity) int {
	switch s {
	case kbmodel.SeverityBreaking:
		return 0
	case kbmodel.SeverityImportant:
		return 1
	case kbmodel.SeverityInformational:
		return 2
	default:
		return 3
	}
}

func containsBreakingSignal(preview string) bool {
	lower := strings.ToLower(preview)
	for _, signal := range breakingSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

// diffPreview builds a unified-diff preview when markdown for both
// sides is available, falling back to a token/hash stand-in
// otherwise.
func (d *Differ) diffPreview(path string, oldEntry, newEntry kbmodel.PageManifestEntry) string {
	if d.pageSource != nil {
		oldMd, oldOK := d.pageSource.Old(path)
		newMd, newOK := d.pageSource.New(path)
		if oldOK && newOK {
			return unifiedDiffPreview(oldMd, newMd)
		}
	}
	return fmt.Sprintf("tokens: %d → %d; hash: %s… → %s…", oldEntry.TokenCount, newEntry.TokenCount, shortHash(oldEntry.Hash), shortHash(newEntry.Hash))
}

func unifiedDiffPreview(oldMd, newMd string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldMd),
		B:        difflib.SplitLines(newMd),
		FromFile: "old",
		ToFile:   "new",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	if len(text) > diffPreviewMaxLen {
		return text[:diffPreviewMaxLen] + "…"
	}
	return text
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// section derives a human-readable breadcrumb from a page path by
// replacing "-"/"_" with spaces and "/" with " > ", title-casing each
// segment.
func section(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		seg = strings.ReplaceAll(seg, "-", " ")
		seg = strings.ReplaceAll(seg, "_", " ")
		segments[i] = strings.Title(seg)
	}
	return strings.Join(segments, " > ")
}

// summaryLine renders "<n> breaking, <n> important, <n> added, <n>
// removed", omitting zero terms.
func summaryLine(changes map[kbmodel.Severity][]kbmodel.ChangeEntry, stats kbmodel.DiffStats) string {
	var parts []string
	if n := len(changes[kbmodel.SeverityBreaking]); n > 0 {
		parts = append(parts, fmt.Sprintf("%d breaking", n))
	}
	if n := len(changes[kbmodel.SeverityImportant]); n > 0 {
		parts = append(parts, fmt.Sprintf("%d important", n))
	}
	if stats.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", stats.Added))
	}
	if stats.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", stats.Removed))
	}
	if len(parts) == 0 {
		return "No significant changes"
	}
	return strings.Join(parts, ", ")
}

func unionKeys(a, b kbmodel.PageManifest) []string {
	set := map[string]struct{}{}
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
