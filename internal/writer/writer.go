// Package writer emits the final page tree: one markdown file per
// surviving page with a structured header, plus index.json and
// manifest.json summarizing the build.
package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/kbmodel"
	"github.com/ternarybob/venicekb/internal/render/tokens"
)

// skeletonDirs is created up-front so repeated builds compare
// consistently even when a section happens to be empty this run.
var skeletonDirs = []string{
	"overview",
	"guides",
	"models",
	filepath.Join("api-reference", "endpoints"),
	"meta",
}

// BuildInfo carries the provenance the manifest records alongside the
// page count.
type BuildInfo struct {
	RepoCommit        string
	SpecHash          string
	BuildDurationSecs float64
	CollectorVersion  string
}

// Writer emits a rendered page set to an output directory.
type Writer struct {
	outputDir string
	logger    arbor.ILogger
}

// New returns a Writer rooted at outputDir.
func New(outputDir string, logger arbor.ILogger) *Writer {
	return &Writer{outputDir: outputDir, logger: logger}
}

// EnsureSkeleton creates the fixed directory layout if missing.
func (w *Writer) EnsureSkeleton() error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, dir := range skeletonDirs {
		if err := os.MkdirAll(filepath.Join(w.outputDir, dir), 0o755); err != nil {
			return fmt.Errorf("create skeleton dir %s: %w", dir, err)
		}
	}
	return nil
}

// Write emits every page's markdown file, then index.json and
// manifest.json. pages must already be deduplicated. extraMetadata
// keys are appended to each page's header after the fixed keys.
func (w *Writer) Write(pages []kbmodel.RenderedPage, info BuildInfo, extraMetadata map[string]map[string]string) error {
	if err := w.EnsureSkeleton(); err != nil {
		return err
	}

	now := time.Now().UTC()
	entries := make([]pageIndexEntry, 0, len(pages))
	totalTokens := 0

	for _, page := range pages {
		hash := ContentHash(page.Markdown)
		tokens := TokenCount(page.Markdown)
		totalTokens += tokens

		header := buildHeader(page, hash, tokens, now, extraMetadata[string(page.Path)])
		full := header + page.Markdown

		dest := filepath.Join(w.outputDir, filepath.FromSlash(string(page.Path))+".md")
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", page.Path, err)
		}
		if err := os.WriteFile(dest, []byte(full), 0o644); err != nil {
			return fmt.Errorf("write page %s: %w", page.Path, err)
		}

		// Read the page back and re-hash its body. A mismatch means the
		// bytes on disk are not what this build produced, and the
		// snapshot about to record this hash must not be saved.
		written, err := os.ReadFile(dest)
		if err != nil {
			return fmt.Errorf("verify page %s after write: %w", page.Path, err)
		}
		if got := ContentHash(strings.TrimPrefix(string(written), header)); got != hash {
			return fmt.Errorf("page %s hash mismatch after write: %w", page.Path, kbmodel.ErrInvariantViolation)
		}

		entries = append(entries, pageIndexEntry{
			Path:        string(page.Path),
			Title:       page.Title,
			Tags:        page.Tags,
			TokenCount:  tokens,
			ContentHash: hash,
			Summary:     summarize(page.Markdown),
		})
	}

	if w.logger != nil {
		w.logger.Info().Int("pages", len(pages)).Str("output", w.outputDir).Msg("wrote page tree")
	}

	if err := w.writeIndex(entries, now, totalTokens); err != nil {
		return err
	}
	return w.writeManifest(info, len(pages), now)
}

type pageIndexEntry struct {
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	TokenCount  int      `json:"token_count"`
	ContentHash string   `json:"content_hash"`
	Summary     string   `json:"summary"`
}

type sectionEntry struct {
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
}

type indexStats struct {
	TotalPages     int `json:"total_pages"`
	TotalEndpoints int `json:"total_endpoints"`
	TotalTokens    int `json:"total_tokens"`
}

type indexDoc struct {
	Generated time.Time        `json:"generated"`
	Sections  []sectionEntry   `json:"sections"`
	Pages     []pageIndexEntry `json:"pages"`
	Endpoints []string         `json:"endpoints"`
	Stats     indexStats       `json:"stats"`
}

func (w *Writer) writeIndex(entries []pageIndexEntry, now time.Time, totalTokens int) error {
	sectionCounts := map[string]int{}
	var sectionOrder []string
	endpoints := []string{}

	for _, entry := range entries {
		section := topLevelSection(entry.Path)
		if _, seen := sectionCounts[section]; !seen {
			sectionOrder = append(sectionOrder, section)
		}
		sectionCounts[section]++

		if strings.HasPrefix(entry.Path, "api-reference/endpoint/") {
			endpoints = append(endpoints, entry.Path)
		}
	}
	sort.Strings(sectionOrder)

	sections := make([]sectionEntry, 0, len(sectionOrder))
	for _, name := range sectionOrder {
		sections = append(sections, sectionEntry{Name: name, PageCount: sectionCounts[name]})
	}

	doc := indexDoc{
		Generated: now,
		Sections:  sections,
		Pages:     entries,
		Endpoints: endpoints,
		Stats: indexStats{
			TotalPages:     len(entries),
			TotalEndpoints: len(endpoints),
			TotalTokens:    totalTokens,
		},
	}

	return writeJSON(filepath.Join(w.outputDir, "index.json"), doc)
}

type manifestDoc struct {
	Timestamp            time.Time `json:"timestamp"`
	RepoCommit           string    `json:"repo_commit,omitempty"`
	SpecHash             string    `json:"spec_hash,omitempty"`
	BuildDurationSeconds float64   `json:"build_duration_seconds"`
	PageCount            int       `json:"page_count"`
	CollectorVersion     string    `json:"collector_version,omitempty"`
}

func (w *Writer) writeManifest(info BuildInfo, pageCount int, now time.Time) error {
	doc := manifestDoc{
		Timestamp:            now,
		RepoCommit:           info.RepoCommit,
		SpecHash:             info.SpecHash,
		BuildDurationSeconds: info.BuildDurationSecs,
		PageCount:            pageCount,
		CollectorVersion:     info.CollectorVersion,
	}
	return writeJSON(filepath.Join(w.outputDir, "manifest.json"), doc)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// buildHeader renders the fixed-order YAML-style header: title,
// source, last_updated, content_hash, token_count, tags, then any
// caller-supplied extras in sorted key order.
func buildHeader(page kbmodel.RenderedPage, hash string, tokens int, now time.Time, extras map[string]string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", page.Title)
	fmt.Fprintf(&b, "source: %q\n", page.Source)
	fmt.Fprintf(&b, "last_updated: %q\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "content_hash: %q\n", hash)
	fmt.Fprintf(&b, "token_count: %d\n", tokens)
	b.WriteString("tags: [")
	for i, tag := range page.Tags {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", tag)
	}
	b.WriteString("]\n")

	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %q\n", k, extras[k])
	}
	b.WriteString("---\n\n")
	return b.String()
}

// ContentHash is sha256 of the normalized (whitespace-collapsed,
// lowercased) markdown, computed before header wrapping — a pure
// function of content so unchanged inputs reproduce the same hash.
func ContentHash(markdown string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(markdown)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// TokenCount estimates the page's token count via the goldmark-backed
// approximation in internal/render/tokens, which itself falls back to
// len(markdown)/4 when nothing else can be derived.
func TokenCount(markdown string) int {
	return tokens.Count(markdown)
}

func topLevelSection(path string) string {
	if idx := strings.Index(path, "/"); idx >= 0 {
		return path[:idx]
	}
	return path
}

func summarize(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") {
			continue
		}
		if len(trimmed) > 160 {
			return trimmed[:160] + "…"
		}
		return trimmed
	}
	return ""
}
