package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 16, cfg.Repo.MaxParallel)
	assert.Equal(t, []string{".md", ".mdx"}, cfg.Repo.Extensions)
	assert.Equal(t, 0.8, cfg.Dedup.JaccardThreshold)
	assert.Equal(t, 10, cfg.Changelog.MaxInformationalEntries)
	assert.True(t, cfg.Rendered.Enabled)
}

func TestLoadFromFilesLayersLaterOverEarlier(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.toml")

	require.NoError(t, os.WriteFile(base, []byte(`
environment = "production"

[repo]
owner = "venice"
repo = "docs"
`), 0o644))
	require.NoError(t, os.WriteFile(override, []byte(`
[repo]
repo = "docs-mirror"
`), 0o644))

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "venice", cfg.Repo.Owner)
	assert.Equal(t, "docs-mirror", cfg.Repo.Repo, "later files override earlier ones")
	assert.Equal(t, "main", cfg.Repo.Branch, "defaults survive when no file overrides them")
}

func TestLoadFromFilesAppliesEnvOverrides(t *testing.T) {
	t.Setenv("VENICEKB_GITHUB_TOKEN", "env-token")
	t.Setenv("VENICEKB_API_KEY", "env-api-key")
	t.Setenv("VENICEKB_REPO_MAX_PARALLEL", "4")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Repo.Token)
	assert.Equal(t, "env-api-key", cfg.Live.APIKey)
	assert.Equal(t, 4, cfg.Repo.MaxParallel)
}

func TestLoadFromFilesMissingFileFails(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Spec.URL = "" // required,url
	require.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Spec.URL = "https://api.venice.ai/openapi.yaml"
	cfg.Repo.Owner = "venice"
	cfg.Repo.Repo = "docs"
	require.NoError(t, cfg.Validate())
}
