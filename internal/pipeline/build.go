package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/changelog"
	"github.com/ternarybob/venicekb/internal/common"
	"github.com/ternarybob/venicekb/internal/dedup"
	"github.com/ternarybob/venicekb/internal/differ"
	"github.com/ternarybob/venicekb/internal/fetch/githubsrc"
	"github.com/ternarybob/venicekb/internal/fetch/liveendpoint"
	"github.com/ternarybob/venicekb/internal/fetch/manifestsrc"
	"github.com/ternarybob/venicekb/internal/fetch/rendered"
	"github.com/ternarybob/venicekb/internal/fetch/specsrc"
	"github.com/ternarybob/venicekb/internal/kbmodel"
	"github.com/ternarybob/venicekb/internal/manifest"
	"github.com/ternarybob/venicekb/internal/merge"
	"github.com/ternarybob/venicekb/internal/snapshot"
	"github.com/ternarybob/venicekb/internal/specparse"
	"github.com/ternarybob/venicekb/internal/writer"
)

// BuildResult summarizes one full pipeline run.
type BuildResult struct {
	Snapshot  kbmodel.Snapshot
	Diff      kbmodel.DiffReport
	PageCount int
}

// Build runs every source fetcher, merges and deduplicates the result,
// writes the page tree, saves a snapshot and appends a changelog entry.
func (p *Pipeline) Build(ctx context.Context) (BuildResult, error) {
	correlationID := common.NewCorrelationID()
	logger := p.logger.WithCorrelationId(correlationID)
	started := time.Now()

	common.SetBuildStage("fetch:repo")
	repoFiles, repoCommit, err := p.fetchRepo(ctx, logger)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to fetch repository sources: %w", err)
	}

	common.SetBuildStage("fetch:spec")
	specResult, err := specsrc.New(p.cfg.Spec.URL, p.cacheStore, logger).Fetch(ctx)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to fetch OpenAPI spec: %w", err)
	}
	common.SetBuildStage("specparse")
	endpoints := specparse.Parse(specResult.Doc)

	common.SetBuildStage("manifest")
	pages, err := p.fetchManifestPages(ctx, logger)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to load manifests: %w", err)
	}

	common.SetBuildStage("fetch:rendered")
	scrapeStarted := time.Now().UTC()
	renderedByURL := p.fetchRendered(ctx, logger, pages)

	common.SetBuildStage("fetch:live-endpoint")
	liveSlot := p.fetchLiveEndpoint(ctx, logger)

	common.SetBuildStage("merge")
	merged := merge.Merge(merge.Inputs{
		Pages:         pages,
		RepoMarkdown:  repoMarkdownByPath(repoFiles, p.cfg.Repo.Subtree),
		Endpoints:     endpoints,
		RenderedByURL: renderedByURL,
		Live:          liveSlot,
	}, logger)

	common.SetBuildStage("dedup")
	var synth dedup.Synthesizer
	if p.summarizer != nil {
		synth = p.summarizer
	}
	survivors := dedup.DedupeWithSynthesis(ctx, merged, p.cfg.Dedup.JaccardThreshold, synth, logger)
	for i := range survivors {
		survivors[i].ContentHash = writer.ContentHash(survivors[i].Markdown)
		survivors[i].TokenCount = writer.TokenCount(survivors[i].Markdown)
	}

	previousMarkdown := loadPreviousMarkdown(p.cfg.Writer.OutputDir, survivors)

	common.SetBuildStage("write")
	w := writer.New(p.cfg.Writer.OutputDir, logger)
	buildInfo := writer.BuildInfo{
		RepoCommit:        repoCommit,
		SpecHash:          specResult.Hash,
		BuildDurationSecs: time.Since(started).Seconds(),
		CollectorVersion:  common.GetVersion(),
	}
	if err := w.Write(survivors, buildInfo, nil); err != nil {
		return BuildResult{}, fmt.Errorf("failed to write page tree: %w", err)
	}

	common.SetBuildStage("snapshot")
	generatedAt := time.Now().UTC()
	snap := kbmodel.Snapshot{
		SnapshotID:  p.nextSnapshotID(generatedAt),
		GeneratedAt: generatedAt,
		SourceVersions: kbmodel.SourceVersions{
			RepoCommit:      repoCommit,
			SpecHash:        specResult.Hash,
			ScrapeTimestamp: scrapeStarted.Format(time.RFC3339),
		},
		PageManifest: snapshot.BuildPageManifest(survivors),
	}

	common.SetBuildStage("diff")
	report := p.buildDiffReport(ctx, logger, snap, survivors, previousMarkdown)

	if err := p.snapStore.Save(snap); err != nil {
		return BuildResult{}, fmt.Errorf("failed to save snapshot: %w", err)
	}

	common.SetBuildStage("changelog")
	if err := p.appendChangelog(report); err != nil {
		return BuildResult{}, fmt.Errorf("failed to append changelog: %w", err)
	}

	common.SetBuildStage("")
	logger.Info().
		Int("pages", len(survivors)).
		Str("snapshot_id", snap.SnapshotID).
		Str("summary", report.Summary).
		Msg("build complete")

	return BuildResult{Snapshot: snap, Diff: report, PageCount: len(survivors)}, nil
}

func (p *Pipeline) fetchRepo(ctx context.Context, logger arbor.ILogger) ([]githubsrc.File, string, error) {
	repo := githubsrc.New(ctx, p.cfg.Repo.Owner, p.cfg.Repo.Repo, p.cfg.Repo.Branch, p.cfg.Repo.Subtree, p.cfg.Repo.Extensions, p.cfg.Repo.MaxParallel, p.cfg.Repo.Token, p.cacheStore, logger)

	commit, err := repo.ResolvedCommit(ctx)
	if err != nil {
		return nil, "", err
	}

	paths, err := repo.ListTree(ctx)
	if err != nil {
		return nil, "", err
	}

	files, errs := repo.FetchAll(ctx, paths)
	out := make([]githubsrc.File, 0, len(files))
	for i, f := range files {
		if errs[i] != nil {
			logger.Warn().Err(errs[i]).Str("path", paths[i]).Msg("skipping repo file that failed to fetch")
			continue
		}
		out = append(out, f)
	}
	return out, commit, nil
}

func (p *Pipeline) fetchManifestPages(ctx context.Context, logger arbor.ILogger) ([]kbmodel.CanonicalPage, error) {
	fetcher := manifestsrc.New(p.cacheStore, logger)

	navJSON, err := fetcher.Fetch(ctx, "navigation", p.cfg.Manifest.NavigationURL)
	if err != nil {
		return nil, err
	}
	urlListJSON, err := fetcher.Fetch(ctx, "urllist", p.cfg.Manifest.URLListURL)
	if err != nil {
		return nil, err
	}
	return manifest.Load(navJSON, urlListJSON)
}

func (p *Pipeline) fetchRendered(ctx context.Context, logger arbor.ILogger, pages []kbmodel.CanonicalPage) map[string]merge.RenderedContent {
	out := map[string]merge.RenderedContent{}
	if !p.cfg.Rendered.Enabled {
		return out
	}

	f := rendered.New(rendered.Options{
		Enabled:            p.cfg.Rendered.Enabled,
		UserAgent:          p.cfg.Rendered.UserAgent,
		WaitSelectors:      p.cfg.Rendered.WaitSelectors,
		NetworkIdleTimeout: p.cfg.Rendered.NetworkIdleTimeout,
		SelectorTimeout:    p.cfg.Rendered.SelectorTimeout,
	}, logger)

	if err := f.Acquire(); err != nil {
		logger.Warn().Err(err).Msg("rendered-page browser unavailable, pages will use fallback sentinel")
		return out
	}
	defer f.Release()
	logger.Debug().Str("wait_selectors", rendered.SelectorList(p.cfg.Rendered.WaitSelectors)).Msg("rendered-page browser ready")

	for _, page := range pages {
		if page.ExternalURL == "" {
			continue
		}
		html := f.Fetch(ctx, page.ExternalURL)
		out[page.ExternalURL] = merge.RenderedContent{RawHTML: html, BaseURL: page.ExternalURL}
	}
	return out
}

func (p *Pipeline) fetchLiveEndpoint(ctx context.Context, logger arbor.ILogger) *merge.LiveEndpointSlot {
	f := liveendpoint.New(p.cfg.Live.BaseURL, p.cfg.Live.APIKey, logger)
	if !f.Enabled() {
		return nil
	}
	models, err := f.Fetch(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("live-endpoint fetch failed, leaving its slot unfilled")
		return nil
	}
	return &merge.LiveEndpointSlot{
		Path:     kbmodel.PagePath(p.cfg.Live.TargetPath),
		Markdown: liveendpoint.RenderMarkdown(models),
	}
}

// buildDiffReport compares snap against the previous snapshot, or
// synthesizes the single-entry "initial build" report when no previous
// snapshot exists yet.
func (p *Pipeline) buildDiffReport(ctx context.Context, logger arbor.ILogger, snap kbmodel.Snapshot, survivors []kbmodel.RenderedPage, previousMarkdown map[string]string) kbmodel.DiffReport {
	old, hasOld, err := p.snapStore.LoadLatest()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load previous snapshot, treating this as an initial build")
		hasOld = false
	}

	if !hasOld {
		return initialBuildReport(snap)
	}

	newByPath := make(map[string]string, len(survivors))
	for _, s := range survivors {
		newByPath[string(s.Path)] = s.Markdown
	}

	d := differ.New(differ.Options{
		PageSource: &differ.PageSource{
			Old: func(path string) (string, bool) { md, ok := previousMarkdown[path]; return md, ok },
			New: func(path string) (string, bool) { md, ok := newByPath[path]; return md, ok },
		},
	})
	report := d.Compare(old, snap, time.Now().UTC())
	p.enrichWithLLMSummaries(ctx, &report, previousMarkdown, newByPath)
	return report
}

// initialBuildReport is the synthetic report for the very first build:
// a single informational entry, not one "added" change per page.
func initialBuildReport(snap kbmodel.Snapshot) kbmodel.DiffReport {
	now := time.Now().UTC()
	entry := kbmodel.ChangeEntry{
		ChangeType: kbmodel.ChangeAdded,
		Severity:   kbmodel.SeverityInformational,
		Path:       "",
		Title:      "Initial build",
		Details:    fmt.Sprintf("%d pages written in the first build", len(snap.PageManifest)),
	}
	return kbmodel.DiffReport{
		GeneratedAt:       now,
		CurrentSnapshotID: snap.SnapshotID,
		Summary:           "Initial build",
		Stats:             kbmodel.DiffStats{Added: len(snap.PageManifest)},
		Changes:           map[kbmodel.Severity][]kbmodel.ChangeEntry{kbmodel.SeverityInformational: {entry}},
	}
}

// enrichWithLLMSummaries fills ChangeEntry.LLMSummary for breaking and
// important changes, when the optional collaborator is configured. A
// missing markdown side or a failed call simply leaves the field empty.
func (p *Pipeline) enrichWithLLMSummaries(ctx context.Context, report *kbmodel.DiffReport, oldByPath, newByPath map[string]string) {
	if p.summarizer == nil {
		return
	}
	for _, sev := range []kbmodel.Severity{kbmodel.SeverityBreaking, kbmodel.SeverityImportant} {
		entries := report.Changes[sev]
		for i := range entries {
			oldMd := oldByPath[entries[i].Path]
			newMd := newByPath[entries[i].Path]
			if summary, ok := p.summarizer.Summarize(ctx, oldMd, newMd, entries[i].Title); ok {
				entries[i].LLMSummary = summary
			}
		}
		report.Changes[sev] = entries
	}
}

func (p *Pipeline) appendChangelog(report kbmodel.DiffReport) error {
	mdPath := filepath.Join(p.cfg.Writer.OutputDir, "CHANGELOG.md")
	jsonPath := filepath.Join(p.cfg.Writer.OutputDir, "CHANGELOG.json")

	previous, err := changelog.LoadPrevious(jsonPath)
	if err != nil {
		return err
	}
	return changelog.Append(mdPath, jsonPath, report, previous)
}

func (p *Pipeline) nextSnapshotID(generatedAt time.Time) string {
	names, err := p.snapStore.List()
	if err != nil {
		return common.NewSnapshotID(generatedAt)
	}
	candidate := common.NewSnapshotID(generatedAt)
	for _, name := range names {
		if name == "snapshot_"+generatedAt.Format("20060102_150405")+".json" {
			return common.NewSnapshotIDWithSuffix(generatedAt)
		}
	}
	return candidate
}
