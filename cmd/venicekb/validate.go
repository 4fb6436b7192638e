package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/venicekb/internal/common"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the OpenAPI spec and manifests fetch and parse cleanly",
	Long: `validate performs the cheapest possible source check: it fetches
and parses the OpenAPI spec and the navigation/URL-list manifests, but
never touches the repository, rendered pages or the live endpoint, and
writes nothing to disk except the fetched documents in the cache.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, p, err := loadPipeline()
	if err != nil {
		return err
	}

	result, err := p.Validate(context.Background())
	if err != nil {
		common.PrintError(fmt.Sprintf("validation failed: %v", err))
		return err
	}

	common.PrintSuccess(fmt.Sprintf("%d endpoints, %d canonical pages parsed cleanly", result.EndpointCount, result.PageCount))
	return nil
}
