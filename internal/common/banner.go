package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the CLI startup banner for a build/update invocation.
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	build := GetBuild()

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("VENICEKB")
	b.PrintCenteredText("Documentation Knowledge Base Pipeline")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Environment", config.Environment, 15)
	b.PrintKeyValue("Output Dir", config.Writer.OutputDir, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", config.Environment).
		Str("output_dir", config.Writer.OutputDir).
		Msg("venicekb started")

	printCapabilities(config, logger)
	fmt.Printf("\n")
}

// printCapabilities lists which source fetchers are configured to run.
func printCapabilities(config *Config, logger arbor.ILogger) {
	fmt.Printf("Enabled sources:\n")

	enabled := []string{"repo-markdown", "openapi-spec", "navigation-manifest"}
	fmt.Printf("   - repo markdown (%s/%s@%s)\n", config.Repo.Owner, config.Repo.Repo, config.Repo.Branch)
	fmt.Printf("   - OpenAPI spec (%s)\n", config.Spec.URL)
	fmt.Printf("   - navigation + URL-list manifests\n")

	if config.Rendered.Enabled {
		fmt.Printf("   - rendered pages (headless browser)\n")
		enabled = append(enabled, "rendered-pages")
	}
	if config.Live.APIKey != "" {
		fmt.Printf("   - live model-listing endpoint\n")
		enabled = append(enabled, "live-endpoint")
	} else {
		fmt.Printf("   - live model-listing endpoint: disabled (no API key configured)\n")
	}
	if config.LLM.Enabled {
		fmt.Printf("   - LLM changelog enrichment (%s)\n", config.LLM.Model)
		enabled = append(enabled, "llm-enrichment")
	}

	logger.Info().
		Strs("enabled_sources", enabled).
		Float64("dedup_jaccard_threshold", config.Dedup.JaccardThreshold).
		Msg("pipeline capabilities")
}

// PrintShutdownBanner displays the completion banner after a build/update run.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("BUILD COMPLETE")
	b.PrintCenteredText("VENICEKB")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("venicekb run finished")
}

// PrintColorizedMessage prints a message in the given color to stdout.
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints and logs a success message.
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("✓ %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints and logs an error message.
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("✗ %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints and logs a warning message.
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("⚠ %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints and logs an informational message.
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("ℹ %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
