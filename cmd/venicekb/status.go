package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest snapshot on disk, without fetching anything",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, p, err := loadPipeline()
	if err != nil {
		return err
	}

	result, err := p.Status()
	if err != nil {
		return err
	}

	if !result.HasSnapshot {
		fmt.Println("No snapshot found yet. Run `venicekb build` to create one.")
		return nil
	}

	fmt.Printf("Snapshot:     %s\n", result.SnapshotID)
	fmt.Printf("Generated at: %s\n", result.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Pages:        %d\n", result.PageCount)
	if result.RepoCommit != "" {
		fmt.Printf("Repo commit:  %s\n", result.RepoCommit)
	}
	if result.SpecHash != "" {
		fmt.Printf("Spec hash:    %s\n", result.SpecHash)
	}
	return nil
}
