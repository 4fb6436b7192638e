package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

func writeRawForTest(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func newTestStore(t *testing.T, forceRefresh bool) *Store {
	t.Helper()
	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{Type: models.LogWriterTypeConsole})
	s, err := New(filepath.Join(t.TempDir(), "cache"), forceRefresh, logger)
	require.NoError(t, err)
	return s
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s := newTestStore(t, false)
	key := Key("repo", "owner/repo/main/docs/intro.md")

	err := s.Put(key, []byte("hello world"), Meta{ETag: "abc123", URL: "https://example.com/intro.md"})
	require.NoError(t, err)

	data, meta, ok := s.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("hello world"), data)
	assert.Equal(t, "abc123", meta.ETag)
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t, false)
	_, _, ok := s.Get(Key("repo", "nonexistent"))
	assert.False(t, ok)
}

func TestStoreForceRefreshBypassesReads(t *testing.T) {
	s := newTestStore(t, true)
	key := Key("repo", "owner/repo/main/docs/intro.md")
	require.NoError(t, s.Put(key, []byte("v1"), Meta{}))

	_, _, ok := s.Get(key)
	assert.False(t, ok, "force refresh must bypass reads even after a write")
}

func TestStorePartialWriteIgnored(t *testing.T) {
	s := newTestStore(t, false)
	key := Key("repo", "partial")
	payloadPath, _ := s.paths(key)

	require.NoError(t, writeRawForTest(payloadPath, []byte("orphaned")))

	_, _, ok := s.Get(key)
	assert.False(t, ok, "a payload with no .meta must be treated as absent")
}

func TestKeyIsDeterministicPerKind(t *testing.T) {
	a := Key("repo", "same-identifier")
	b := Key("spec", "same-identifier")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key("repo", "same-identifier"))
}
