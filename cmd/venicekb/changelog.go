package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ternarybob/venicekb/internal/changelog"
)

var changelogJSON bool

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Print the accumulated changelog written by previous builds",
	Args:  cobra.NoArgs,
	RunE:  runChangelog,
}

func init() {
	changelogCmd.Flags().BoolVar(&changelogJSON, "json", false, "print the raw CHANGELOG.json instead of the rendered markdown")
	rootCmd.AddCommand(changelogCmd)
}

func runChangelog(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadPipeline()
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(cfg.Writer.OutputDir, "CHANGELOG.json")
	reports, err := changelog.LoadPrevious(jsonPath)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No changelog entries yet. Run `venicekb build` to create one.")
		return nil
	}

	if changelogJSON {
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
