package pipeline

import (
	"fmt"
	"time"
)

// StatusResult reports the latest snapshot on disk without touching
// the network.
type StatusResult struct {
	HasSnapshot bool
	SnapshotID  string
	GeneratedAt time.Time
	PageCount   int
	RepoCommit  string
	SpecHash    string
}

// Status reads the most recent snapshot from the store, if any.
func (p *Pipeline) Status() (StatusResult, error) {
	snap, ok, err := p.snapStore.LoadLatest()
	if err != nil {
		return StatusResult{}, fmt.Errorf("failed to read latest snapshot: %w", err)
	}
	if !ok {
		return StatusResult{}, nil
	}
	return StatusResult{
		HasSnapshot: true,
		SnapshotID:  snap.SnapshotID,
		GeneratedAt: snap.GeneratedAt,
		PageCount:   len(snap.PageManifest),
		RepoCommit:  snap.SourceVersions.RepoCommit,
		SpecHash:    snap.SourceVersions.SpecHash,
	}, nil
}
