package pipeline

import (
	"fmt"
	"time"

	"github.com/ternarybob/venicekb/internal/differ"
	"github.com/ternarybob/venicekb/internal/kbmodel"
	"github.com/ternarybob/venicekb/internal/snapshot"
)

// DiffPaths compares two snapshot files named directly on the command
// line, outside any store. Without access to either side's on-disk
// markdown, the differ falls back to its token/hash stand-in preview —
// the same degraded mode it uses whenever PageSource is nil.
func DiffPaths(oldPath, newPath string) (kbmodel.DiffReport, error) {
	oldSnap, err := snapshot.LoadPath(oldPath)
	if err != nil {
		return kbmodel.DiffReport{}, fmt.Errorf("failed to load old snapshot: %w", err)
	}
	newSnap, err := snapshot.LoadPath(newPath)
	if err != nil {
		return kbmodel.DiffReport{}, fmt.Errorf("failed to load new snapshot: %w", err)
	}

	d := differ.New(differ.Options{})
	return d.Compare(oldSnap, newSnap, time.Now().UTC()), nil
}
