package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/venicekb/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("venicekb %s (build %s)\n", common.GetVersion(), common.GetBuild())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
