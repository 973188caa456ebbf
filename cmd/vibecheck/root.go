// Command vibecheck is the VibeCheck command-line interface. Grounded
// on cmd/redactyl/root.go: one SilenceUsage/SilenceErrors root command,
// persistent output/format flags, a thin Execute() main calls.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagJSON          bool
	flagSARIF         bool
	flagTable         bool
	flagNoColor       bool
	flagFailOn        string
	flagMetricsAddr   string
	flagNoUpdateCheck bool

	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:           "vibecheck",
	Short:         "Catch AI-generated defects before they ship",
	Long:          "VibeCheck scans a source tree for AI-generated defects, verifies claims against live evidence, and reports a Ship Score verdict.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the VibeCheck CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0 (scan only)")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "emit a bordered table instead of columnar text")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "medium", "fail on low|medium|high")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable the background update check")
}
