// Package dedup removes duplicate and near-duplicate pages from a
// merged page set in two passes: an exact content-hash pass,
// then an iterative Jaccard-similarity pass.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

// DefaultJaccardThreshold is the near-duplicate similarity cutoff used
// when no override is configured.
const DefaultJaccardThreshold = 0.8

// priorityRank mirrors merge.PriorityOrder; lower ranks survive ties.
var priorityRank = map[string]int{
	"spec":          0,
	"repo-markdown": 1,
	"rendered":      2,
	"live-endpoint": 3,
	"stub":          4,
}

// Synthesizer is the optional language-model collaborator: given the
// shorter and longer side of a near-duplicate
// pair about to collapse, it may return a merged synthesis to use as
// the longer page's content instead of dropping the shorter page's
// material outright. A nil Synthesizer (or a failed call) leaves the
// longer page's content untouched — the pass behaves identically
// without this collaborator.
type Synthesizer interface {
	Synthesize(ctx context.Context, shorter, longer kbmodel.RenderedPage) (merged string, ok bool)
}

// Dedupe runs the exact-hash pass followed by the near-duplicate pass
// and returns the surviving pages, each exact-duplicate survivor placed
// where its content first appeared in pages.
func Dedupe(pages []kbmodel.RenderedPage, jaccardThreshold float64, logger arbor.ILogger) []kbmodel.RenderedPage {
	return DedupeWithSynthesis(context.Background(), pages, jaccardThreshold, nil, logger)
}

// DedupeWithSynthesis is Dedupe plus the optional merged-synthesis
// hook point in the near-duplicate pass. synth may be nil.
func DedupeWithSynthesis(ctx context.Context, pages []kbmodel.RenderedPage, jaccardThreshold float64, synth Synthesizer, logger arbor.ILogger) []kbmodel.RenderedPage {
	if jaccardThreshold <= 0 {
		jaccardThreshold = DefaultJaccardThreshold
	}
	survivors := exactPass(pages, logger)
	return nearDuplicatePass(ctx, survivors, jaccardThreshold, synth, logger)
}

// normalize collapses internal whitespace and lowercases markdown so
// that cosmetic formatting differences don't defeat hash matching.
func normalize(markdown string) string {
	return strings.Join(strings.Fields(strings.ToLower(markdown)), " ")
}

func exactPass(pages []kbmodel.RenderedPage, logger arbor.ILogger) []kbmodel.RenderedPage {
	groups := map[string][]kbmodel.RenderedPage{}
	var order []string
	for _, p := range pages {
		sum := sha256.Sum256([]byte(normalize(p.Markdown)))
		key := hex.EncodeToString(sum[:])
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	survivors := make([]kbmodel.RenderedPage, 0, len(order))
	for _, key := range order {
		group := groups[key]
		survivor := group[0]
		for _, candidate := range group[1:] {
			if betterSurvivor(candidate, survivor) {
				survivor = candidate
			}
		}
		if len(group) > 1 && logger != nil {
			logger.Debug().Int("duplicates", len(group)-1).Str("path", string(survivor.Path)).Msg("dropped exact-hash duplicate pages")
		}
		survivors = append(survivors, survivor)
	}
	return survivors
}

// betterSurvivor reports whether candidate should replace current as
// the exact-duplicate group's survivor: highest merge priority wins,
// shortest path breaks ties.
func betterSurvivor(candidate, current kbmodel.RenderedPage) bool {
	cRank, curRank := priorityRankOf(candidate.Source), priorityRankOf(current.Source)
	if cRank != curRank {
		return cRank < curRank
	}
	return len(candidate.Path) < len(current.Path)
}

func priorityRankOf(source string) int {
	if rank, ok := priorityRank[source]; ok {
		return rank
	}
	return len(priorityRank)
}

// nearDuplicatePass drops one page per iteration, the shorter of any
// pair at or above threshold, until a fixed point.
// When synth is non-nil it is given the chance to replace the
// surviving (longer) page's content with a merged synthesis before the
// shorter page is dropped.
func nearDuplicatePass(ctx context.Context, pages []kbmodel.RenderedPage, threshold float64, synth Synthesizer, logger arbor.ILogger) []kbmodel.RenderedPage {
	current := pages
	for {
		tokenSets := make([]map[string]struct{}, len(current))
		for i, p := range current {
			tokenSets[i] = tokenSet(normalize(p.Markdown))
		}

		dropPath, found := kbmodel.PagePath(""), false
		var shorter, longer kbmodel.RenderedPage
		for i := 0; i < len(current) && !found; i++ {
			if len(tokenSets[i]) == 0 {
				continue
			}
			for j := i + 1; j < len(current); j++ {
				if len(tokenSets[j]) == 0 {
					continue
				}
				if jaccard(tokenSets[i], tokenSets[j]) < threshold {
					continue
				}
				dropPath = shorterPath(current[i], current[j])
				if dropPath == current[i].Path {
					shorter, longer = current[i], current[j]
				} else {
					shorter, longer = current[j], current[i]
				}
				found = true
				break
			}
		}

		if !found {
			return current
		}
		if synth != nil {
			if merged, ok := synth.Synthesize(ctx, shorter, longer); ok && merged != "" {
				current = replaceMarkdown(current, longer.Path, merged)
				if logger != nil {
					logger.Debug().Str("survivor", string(longer.Path)).Str("dropped", string(shorter.Path)).Msg("merged near-duplicate content via LLM synthesis")
				}
			}
		}
		if logger != nil {
			logger.Debug().Str("path", string(dropPath)).Msg("dropped near-duplicate page")
		}
		current = removePath(current, dropPath)
	}
}

func replaceMarkdown(pages []kbmodel.RenderedPage, path kbmodel.PagePath, markdown string) []kbmodel.RenderedPage {
	out := make([]kbmodel.RenderedPage, len(pages))
	copy(out, pages)
	for i := range out {
		if out[i].Path == path {
			out[i].Markdown = markdown
		}
	}
	return out
}

// shorterPath returns the path of the page that should be dropped:
// the page with the shorter markdown, or on a length tie the
// lexicographically later path.
func shorterPath(a, b kbmodel.RenderedPage) kbmodel.PagePath {
	if len(a.Markdown) != len(b.Markdown) {
		if len(a.Markdown) < len(b.Markdown) {
			return a.Path
		}
		return b.Path
	}
	if a.Path > b.Path {
		return a.Path
	}
	return b.Path
}

func removePath(pages []kbmodel.RenderedPage, target kbmodel.PagePath) []kbmodel.RenderedPage {
	out := make([]kbmodel.RenderedPage, 0, len(pages)-1)
	for _, p := range pages {
		if p.Path != target {
			out = append(out, p)
		}
	}
	return out
}

func tokenSet(normalized string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range strings.Fields(normalized) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
