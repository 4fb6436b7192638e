// Package snapshot implements the append-only snapshot store:
// each build's page manifest and source versions are saved as a
// timestamped JSON file, never modified or deleted by the core.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/kbmodel"
)

const filePrefix = "snapshot_"
const fileSuffix = ".json"

// Store persists Snapshot records under a directory as
// snapshot_<YYYYMMDD_HHMMSS>.json files.
type Store struct {
	dir    string
	logger arbor.ILogger
}

// New returns a Store rooted at dir, creating it if missing.
func New(dir string, logger arbor.ILogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save writes snap to snapshot_<ts>.json, atomically.
func (s *Store) Save(snap kbmodel.Snapshot) error {
	name := filePrefix + snap.GeneratedAt.UTC().Format("20060102_150405") + fileSuffix
	dest := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp snapshot file: %w", err)
	}

	if s.logger != nil {
		s.logger.Info().Str("snapshot_id", snap.SnapshotID).Int("pages", len(snap.PageManifest)).Msg("saved snapshot")
	}
	return nil
}

// List enumerates snapshot files, newest-first by mtime. Sorting by
// file modification time rather than by
// filename keeps the invariant true even if a snapshot file is
// restored or copied under a name that no longer matches when it was
// actually written. Files with equal mtimes are ordered by name,
// latest timestamp first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	type named struct {
		name    string
		modTime time.Time
	}

	var files []named
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat snapshot %s: %w", name, err)
		}
		files = append(files, named{name: name, modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].name > files[j].name
	})

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}

// LoadLatest returns the most recent snapshot, or ok=false if none exist.
func (s *Store) LoadLatest() (kbmodel.Snapshot, bool, error) {
	names, err := s.List()
	if err != nil {
		return kbmodel.Snapshot{}, false, err
	}
	if len(names) == 0 {
		return kbmodel.Snapshot{}, false, nil
	}
	snap, err := s.load(names[0])
	if err != nil {
		return kbmodel.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Load reads a single snapshot file by its base filename.
func (s *Store) Load(name string) (kbmodel.Snapshot, error) {
	return s.load(name)
}

func (s *Store) load(name string) (kbmodel.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return kbmodel.Snapshot{}, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	var snap kbmodel.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return kbmodel.Snapshot{}, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	return snap, nil
}

// LoadPath reads a Snapshot from an arbitrary filesystem path, not one
// rooted in a Store's directory. This backs the standalone "diff
// --old <path> --new <path>" command, which compares two snapshot files
// named directly on the command line rather than by store-relative name.
func LoadPath(path string) (kbmodel.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kbmodel.Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var snap kbmodel.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return kbmodel.Snapshot{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return snap, nil
}

// BuildPageManifest converts a rendered-page set into the manifest
// format a Snapshot stores.
func BuildPageManifest(pages []kbmodel.RenderedPage) kbmodel.PageManifest {
	manifest := make(kbmodel.PageManifest, len(pages))
	for _, p := range pages {
		manifest[string(p.Path)] = kbmodel.PageManifestEntry{
			Hash:       p.ContentHash,
			TokenCount: p.TokenCount,
			Title:      p.Title,
			Tags:       p.Tags,
		}
	}
	return manifest
}
