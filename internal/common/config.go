package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level application configuration, loaded default ->
// file1 -> file2 -> ... -> environment, later sources overriding
// earlier ones.
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig `toml:"logging"`

	Cache    CacheStoreConfig   `toml:"cache"`
	Repo     RepoSourceConfig   `toml:"repo"`
	Spec     SpecSourceConfig   `toml:"spec"`
	Manifest ManifestConfig     `toml:"manifest"`
	Rendered RenderedConfig     `toml:"rendered"`
	Live     LiveEndpointConfig `toml:"live_endpoint"`

	Dedup     DedupConfig     `toml:"dedup"`
	Writer    WriterConfig    `toml:"writer"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Changelog ChangelogConfig `toml:"changelog"`
	LLM       LLMConfig       `toml:"llm"`
}

// LoggingConfig controls log level, time format and output destinations.
// Format is loaded but not read by SetupLogger.
type LoggingConfig struct {
	Level      string   `toml:"level"`       // debug|info|warn|error
	Format     string   `toml:"format"`      // text|json
	Output     []string `toml:"output"`      // stdout, file
	TimeFormat string   `toml:"time_format"` // default "15:04:05.000"
}

// CacheStoreConfig configures the on-disk byte-blob cache.
type CacheStoreConfig struct {
	Dir          string `toml:"dir" validate:"required"`
	ForceRefresh bool   `toml:"force_refresh"`
}

// RepoSourceConfig configures the repo-tree / repo-file fetchers.
type RepoSourceConfig struct {
	Owner       string   `toml:"owner" validate:"required"`
	Repo        string   `toml:"repo" validate:"required"`
	Branch      string   `toml:"branch" validate:"required"`
	Subtree     string   `toml:"subtree"`
	Extensions  []string `toml:"extensions"`
	Token       string   `toml:"token"` // prefer VENICEKB_GITHUB_TOKEN env
	MaxParallel int      `toml:"max_parallel" validate:"min=1"`
}

// SpecSourceConfig configures the OpenAPI spec fetcher.
type SpecSourceConfig struct {
	URL string `toml:"url" validate:"required,url"`
}

// ManifestConfig configures the two manifest fetchers.
type ManifestConfig struct {
	NavigationURL       string `toml:"navigation_url"`
	URLListURL          string `toml:"url_list_url"`
	APIReferenceSubtree string `toml:"api_reference_subtree"` // e.g. "api-reference/endpoint"
}

// RenderedConfig configures the headless-browser rendered-page fetcher.
type RenderedConfig struct {
	Enabled            bool          `toml:"enabled"`
	UserAgent          string        `toml:"user_agent"`
	WaitSelectors      []string      `toml:"wait_selectors"`
	NetworkIdleTimeout time.Duration `toml:"network_idle_timeout"`
	SelectorTimeout    time.Duration `toml:"selector_timeout"` // default 10s
}

// LiveEndpointConfig configures the live model-listing fetcher.
type LiveEndpointConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"` // prefer VENICEKB_API_KEY env
	TargetPath string `toml:"target_path" validate:"required"` // canonical page the model list binds to
}

// DedupConfig configures the near-duplicate collapse pass.
type DedupConfig struct {
	JaccardThreshold float64 `toml:"jaccard_threshold"` // default 0.8
}

// WriterConfig configures page/index/manifest output.
type WriterConfig struct {
	OutputDir string `toml:"output_dir" validate:"required"`
}

// SnapshotConfig configures the snapshot store.
type SnapshotConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

// ChangelogConfig holds changelog rendering settings.
// MaxInformationalEntries is loaded but not read: the changelog renderer
// truncates informational entries at a fixed 10.
type ChangelogConfig struct {
	MaxInformationalEntries int `toml:"max_informational_entries"` // default 10
}

// LLMConfig configures the optional diff-summary enrichment collaborator.
type LLMConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"` // prefer ANTHROPIC_API_KEY env
	Model   string `toml:"model"`
}

// NewDefaultConfig returns a Config populated with working defaults;
// a config file and environment overrides layer on top.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Cache: CacheStoreConfig{
			Dir: "./cache",
		},
		Repo: RepoSourceConfig{
			Branch:      "main",
			Extensions:  []string{".md", ".mdx"},
			MaxParallel: 16,
		},
		Manifest: ManifestConfig{
			APIReferenceSubtree: "api-reference/endpoint",
		},
		Rendered: RenderedConfig{
			Enabled:            true,
			UserAgent:          "venicekb-collector/1.0",
			NetworkIdleTimeout: 5 * time.Second,
			SelectorTimeout:    10 * time.Second,
		},
		Live: LiveEndpointConfig{
			TargetPath: "models/overview",
		},
		Dedup: DedupConfig{
			JaccardThreshold: 0.8,
		},
		Writer: WriterConfig{
			OutputDir: "./output",
		},
		Snapshot: SnapshotConfig{
			Dir: "./snapshots",
		},
		Changelog: ChangelogConfig{
			MaxInformationalEntries: 10,
		},
		LLM: LLMConfig{
			Model: "claude-haiku-4-5",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> ...
// -> fileN -> environment. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// Validate checks required fields using go-playground/validator tags.
// Called once after LoadFromFiles, before any fetcher is constructed, so
// a misconfigured run fails fast with a field-level error instead of a
// confusing nil-pointer or empty-URL failure deep in the pipeline.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides (highest
// priority). An absent API key disables the live-endpoint fetcher; an
// absent repo token still allows unauthenticated access at a lower
// rate limit.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VENICEKB_ENV"); env != "" {
		config.Environment = env
	}
	if level := os.Getenv("VENICEKB_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if token := os.Getenv("VENICEKB_GITHUB_TOKEN"); token != "" {
		config.Repo.Token = token
	}
	if apiKey := os.Getenv("VENICEKB_API_KEY"); apiKey != "" {
		config.Live.APIKey = apiKey
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
		config.LLM.Enabled = true
	}
	if maxParallel := os.Getenv("VENICEKB_REPO_MAX_PARALLEL"); maxParallel != "" {
		if n, err := strconv.Atoi(maxParallel); err == nil && n > 0 {
			config.Repo.MaxParallel = n
		}
	}
}
