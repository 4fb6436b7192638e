package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ternarybob/venicekb/internal/common"
	"github.com/ternarybob/venicekb/internal/pipeline"
)

var configFiles []string

var rootCmd = &cobra.Command{
	Use:     "venicekb",
	Short:   "venicekb builds and maintains a documentation knowledge base",
	Version: common.GetVersion(),
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil,
		"configuration file path (repeatable, later files override earlier ones)")
	rootCmd.SetVersionTemplate("venicekb version {{.Version}}\n")
}

// Execute runs the root command, exiting 1 on any command error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadPipeline loads configuration (auto-discovering ./venicekb.toml
// when no --config flag was given), initializes the global logger and
// wires a Pipeline.
func loadPipeline() (*common.Config, *pipeline.Pipeline, error) {
	files := configFiles
	if len(files) == 0 {
		if _, err := os.Stat("venicekb.toml"); err == nil {
			files = append(files, "venicekb.toml")
		}
	}

	cfg, err := common.LoadFromFiles(files...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := common.SetupLogger(cfg)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	return cfg, p, nil
}
