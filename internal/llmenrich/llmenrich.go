// Package llmenrich is the optional "summarise this diff" collaborator:
// a pure function (old markdown, new markdown, title) -> summary,
// backed by the Anthropic API. The core pipeline never depends on its
// availability; every caller treats a nil *Summarizer exactly like one
// whose Summarize call failed.
package llmenrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

const defaultModel = "claude-haiku-4-5"
const defaultTimeout = 20 * time.Second
const defaultMaxTokens = 512

// Options configures a Summarizer.
type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Summarizer calls Claude to produce a short prose summary of a page's
// change. A zero-value Options.APIKey means the collaborator is
// disabled; New returns nil in that case so callers can treat "no
// enrichment configured" and "enrichment unavailable" identically.
type Summarizer struct {
	client    anthropic.Client
	model     string
	timeout   time.Duration
	maxTokens int
	logger    arbor.ILogger
}

// New returns a Summarizer, or nil if opts.APIKey is empty.
func New(opts Options, logger arbor.ILogger) *Summarizer {
	if opts.APIKey == "" {
		return nil
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Summarizer{
		client:    anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		model:     model,
		timeout:   timeout,
		maxTokens: defaultMaxTokens,
		logger:    logger,
	}
}

// Summarize asks Claude for a one- or two-sentence summary of what
// changed between oldMarkdown and newMarkdown for the page titled
// title. It returns ok=false on any failure (timeout, API error, empty
// response) rather than propagating. This collaborator is best-effort
// and never blocks the build.
func (s *Summarizer) Summarize(ctx context.Context, oldMarkdown, newMarkdown, title string) (summary string, ok bool) {
	if s == nil {
		return "", false
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := buildPrompt(oldMarkdown, newMarkdown, title)
	resp, err := s.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("title", title).Msg("LLM diff-summary enrichment failed, continuing without it")
		}
		return "", false
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	summary = strings.TrimSpace(text.String())
	if summary == "" {
		return "", false
	}
	return summary, true
}

// Synthesize asks Claude to merge a near-duplicate pair's content into
// a single page, used by the dedup near-duplicate pass before it drops
// the shorter side. It satisfies dedup.Synthesizer.
func (s *Summarizer) Synthesize(ctx context.Context, shorter, longer kbmodel.RenderedPage) (merged string, ok bool) {
	if s == nil {
		return "", false
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := buildMergePrompt(shorter, longer)
	resp, err := s.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens * 4),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("path", string(longer.Path)).Msg("LLM near-duplicate synthesis failed, dropping shorter page unmerged")
		}
		return "", false
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	merged = strings.TrimSpace(text.String())
	if merged == "" {
		return "", false
	}
	return merged, true
}

func buildMergePrompt(shorter, longer kbmodel.RenderedPage) string {
	return fmt.Sprintf(
		"Two near-duplicate documentation pages are about to be collapsed into one.\n"+
			"Page A (%s):\n%s\n\nPage B (%s, kept):\n%s\n\n"+
			"Produce a single merged markdown page that keeps everything useful from "+
			"both without duplication. Return only the merged markdown.",
		shorter.Path, truncate(shorter.Markdown, 4000), longer.Path, truncate(longer.Markdown, 4000),
	)
}

func buildPrompt(oldMarkdown, newMarkdown, title string) string {
	return fmt.Sprintf(
		"You are summarizing a documentation change for a developer-facing changelog.\n"+
			"Page: %s\n\nPrevious version:\n%s\n\nNew version:\n%s\n\n"+
			"In one or two sentences, describe what changed and why it matters to an API consumer.",
		title, truncate(oldMarkdown, 4000), truncate(newMarkdown, 4000),
	)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
