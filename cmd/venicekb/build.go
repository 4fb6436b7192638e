package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/venicekb/internal/common"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run one full fetch, merge, dedup, write, snapshot and diff pass",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, p, err := loadPipeline()
	if err != nil {
		return err
	}
	logger := common.GetLogger()
	common.PrintBanner(cfg, logger)

	result, err := p.Build(context.Background())
	if err != nil {
		common.PrintError(fmt.Sprintf("build failed: %v", err))
		return err
	}

	common.PrintSuccess(fmt.Sprintf("wrote %d pages as snapshot %s", result.PageCount, result.Snapshot.SnapshotID))
	fmt.Println(result.Diff.Summary)
	common.PrintShutdownBanner(logger)
	return nil
}
