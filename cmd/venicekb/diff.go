package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/venicekb/internal/changelog"
	"github.com/ternarybob/venicekb/internal/kbmodel"
	"github.com/ternarybob/venicekb/internal/pipeline"
)

var diffOldPath, diffNewPath string
var diffJSON bool

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two snapshot files named on the command line",
	Long: `diff compares two snapshot JSON files directly, independent of the
snapshot store a build writes to. Since neither file's on-disk
markdown is available here, the report falls back to a token/hash
stand-in preview instead of a unified textual diff.`,
	Args: cobra.NoArgs,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffOldPath, "old", "", "path to the older snapshot JSON file")
	diffCmd.Flags().StringVar(&diffNewPath, "new", "", "path to the newer snapshot JSON file")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "print the report as JSON instead of markdown")
	diffCmd.MarkFlagRequired("old")
	diffCmd.MarkFlagRequired("new")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	report, err := pipeline.DiffPaths(diffOldPath, diffNewPath)
	if err != nil {
		return err
	}

	reports := []kbmodel.DiffReport{report}

	if diffJSON {
		data, err := changelog.RenderJSON(reports)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(changelog.Render(reports))
	return nil
}
