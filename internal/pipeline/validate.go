package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/venicekb/internal/common"
	"github.com/ternarybob/venicekb/internal/fetch/specsrc"
	"github.com/ternarybob/venicekb/internal/specparse"
)

// ValidateResult summarizes a source-only check: the spec parses and
// the manifests load, but nothing is fetched from the repo, rendered
// pages or the live endpoint, and nothing is written to disk except the
// fetched spec and manifests in the cache.
type ValidateResult struct {
	EndpointCount int
	PageCount     int
}

// Validate fetches and parses just the OpenAPI spec and the two
// manifests, the cheapest check that the configured sources are
// reachable and well-formed.
func (p *Pipeline) Validate(ctx context.Context) (ValidateResult, error) {
	logger := p.logger.WithCorrelationId(common.NewCorrelationID())

	specResult, err := specsrc.New(p.cfg.Spec.URL, p.cacheStore, logger).Fetch(ctx)
	if err != nil {
		return ValidateResult{}, fmt.Errorf("failed to fetch OpenAPI spec: %w", err)
	}
	endpoints := specparse.Parse(specResult.Doc)

	pages, err := p.fetchManifestPages(ctx, logger)
	if err != nil {
		return ValidateResult{}, fmt.Errorf("failed to load manifests: %w", err)
	}

	logger.Info().
		Int("endpoints", len(endpoints)).
		Int("pages", len(pages)).
		Msg("validation complete")

	return ValidateResult{EndpointCount: len(endpoints), PageCount: len(pages)}, nil
}
