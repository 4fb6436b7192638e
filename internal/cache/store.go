// Package cache implements the content-addressed byte-blob store every
// source fetcher reads through and writes behind. Each key gets a payload
// file plus an adjacent ".meta" JSON side-file carrying provenance (etag,
// last-modified, source URL). Writers use write-to-temp-then-rename so a
// crash or cancellation never leaves a half-written payload visible to
// the next reader.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
)

// Meta is the provenance side-file stored next to a cached payload.
type Meta struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	URL          string `json:"url,omitempty"`
}

// Store is a keyed byte-blob cache rooted at one directory on disk,
// partitioned by "kind" (e.g. "repo", "spec", "rendered", "live").
// Concurrent operations on distinct keys never block each other; two
// writers racing on the same key are resolved last-writer-wins, which is
// safe because a given key's bytes are a deterministic function of its
// upstream source.
type Store struct {
	dir          string
	forceRefresh bool
	logger       arbor.ILogger

	// keyLocks serializes same-key read/write pairs so a reader never
	// observes a payload and its .meta from two different writes.
	keyLocks   map[string]*sync.Mutex
	keyLocksMu sync.Mutex
}

// New creates a Store rooted at dir, creating it if absent.
func New(dir string, forceRefresh bool, logger arbor.ILogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &Store{
		dir:          dir,
		forceRefresh: forceRefresh,
		logger:       logger,
		keyLocks:     make(map[string]*sync.Mutex),
	}, nil
}

// Key derives a content-addressed cache key from a kind and a raw
// identifier (usually a URL or repo path). The kind keeps different
// fetcher families from colliding on the same hash.
func Key(kind, identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return kind + "/" + hex.EncodeToString(sum[:])
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.keyLocksMu.Lock()
	defer s.keyLocksMu.Unlock()
	lock, ok := s.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.keyLocks[key] = lock
	}
	return lock
}

func (s *Store) paths(key string) (payload, meta string) {
	clean := filepath.FromSlash(key)
	return filepath.Join(s.dir, clean), filepath.Join(s.dir, clean+".meta")
}

// Get returns the cached bytes and metadata for key, or ok=false if
// absent or if ForceRefresh is set. A payload file without its .meta is
// ignored as a partial write left over from a cancelled build.
func (s *Store) Get(key string) (data []byte, meta Meta, ok bool) {
	if s.forceRefresh {
		return nil, Meta{}, false
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	payloadPath, metaPath := s.paths(key)

	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, Meta{}, false
	}
	var m Meta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("ignoring cache entry with corrupt meta")
		return nil, Meta{}, false
	}

	data, err = os.ReadFile(payloadPath)
	if err != nil {
		return nil, Meta{}, false
	}

	return data, m, true
}

// Put writes data and its metadata for key. ForceRefresh does not
// prevent writes — a forced rebuild still warms the cache for the next
// run.
func (s *Store) Put(key string, data []byte, meta Meta) error {
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	payloadPath, metaPath := s.paths(key)
	if err := os.MkdirAll(filepath.Dir(payloadPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache subdirectory for %s: %w", key, err)
	}

	if err := atomicWrite(payloadPath, data); err != nil {
		return fmt.Errorf("failed to write cache payload for %s: %w", key, err)
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal cache meta for %s: %w", key, err)
	}
	if err := atomicWrite(metaPath, metaBytes); err != nil {
		return fmt.Errorf("failed to write cache meta for %s: %w", key, err)
	}

	return nil
}

// ForceRefresh reports whether reads are being bypassed for this store.
func (s *Store) ForceRefresh() bool {
	return s.forceRefresh
}

// atomicWrite writes data to a temp file in the same directory as path
// then renames it into place, so a reader never observes a truncated
// file and a crash mid-write leaves only an orphaned temp file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// IdentifierFromPath builds a stable cache identifier from a repo owner,
// name, branch and path, used by the repo-file fetcher so distinct
// branches of the same file never collide.
func IdentifierFromPath(owner, repo, branch, path string) string {
	return strings.Join([]string{owner, repo, branch, path}, "/")
}
