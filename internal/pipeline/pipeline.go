// Package pipeline orchestrates the fetch, parse, merge, dedup, write,
// snapshot and diff stages into the operations the CLI exposes: a full
// build, scheduled repeated builds, a standalone snapshot diff, a
// source-only validation pass, and a read-only status check.
package pipeline

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/cache"
	"github.com/ternarybob/venicekb/internal/common"
	"github.com/ternarybob/venicekb/internal/llmenrich"
	"github.com/ternarybob/venicekb/internal/snapshot"
)

// Pipeline holds the long-lived collaborators a build/validate/status
// run shares: the content cache, the snapshot store and the optional
// LLM enrichment collaborator.
type Pipeline struct {
	cfg    *common.Config
	logger arbor.ILogger

	cacheStore *cache.Store
	snapStore  *snapshot.Store
	summarizer *llmenrich.Summarizer
}

// New wires a Pipeline from cfg. It creates the cache and snapshot
// directories if missing but performs no network I/O.
func New(cfg *common.Config, logger arbor.ILogger) (*Pipeline, error) {
	cacheStore, err := cache.New(cfg.Cache.Dir, cfg.Cache.ForceRefresh, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}

	snapStore, err := snapshot.New(cfg.Snapshot.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	var summarizer *llmenrich.Summarizer
	if cfg.LLM.Enabled {
		summarizer = llmenrich.New(llmenrich.Options{APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model}, logger)
	}

	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		cacheStore: cacheStore,
		snapStore:  snapStore,
		summarizer: summarizer,
	}, nil
}
