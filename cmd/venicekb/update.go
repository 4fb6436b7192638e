package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/venicekb/internal/common"
	"github.com/ternarybob/venicekb/internal/pipeline"
)

var updateSchedule string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run builds on a recurring schedule until interrupted",
	Long: `update runs one build immediately, then again every time the
--schedule cron expression fires, until the process receives an
interrupt. Use "build" for a single one-shot run.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateSchedule, "schedule", "0 */6 * * *",
		"cron expression controlling how often to rebuild (standard 5-field syntax)")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, p, err := loadPipeline()
	if err != nil {
		return err
	}
	logger := common.GetLogger()
	common.PrintBanner(cfg, logger)

	next, err := pipeline.NextScheduledRun(updateSchedule, nowForDisplay())
	if err != nil {
		return err
	}
	logger.Info().Str("schedule", updateSchedule).Str("next_run", next.Format("2006-01-02 15:04:05 MST")).Msg("starting scheduled updates")
	fmt.Printf("Scheduled updates enabled: %s (next run %s)\n", updateSchedule, next.Format("2006-01-02 15:04:05 MST"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	installInterruptHandler(cancel)

	return p.RunScheduled(ctx, updateSchedule)
}
