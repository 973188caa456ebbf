package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vibecheck/vibecheck/internal/fingerprint"
	"github.com/vibecheck/vibecheck/internal/metrics"
	"github.com/vibecheck/vibecheck/internal/types"
	"github.com/vibecheck/vibecheck/pkg/vibecheck"
)

var flagTracePath string

func init() {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Detect drift against the recorded truthpack and verify flow claims",
		RunE:  runTrace,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVarP(&flagTracePath, "path", "p", ".", "path to evaluate")
}

func runTrace(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	abs, err := filepath.Abs(flagTracePath)
	if err != nil {
		return err
	}

	files, err := fingerprint.Walk(abs, fingerprint.Globs{DefaultExcludes: true})
	if err != nil {
		return fmt.Errorf("walk error: %w", err)
	}

	res, err := vibecheck.Trace(ctx, vibecheck.TraceOptions{Root: abs, Files: files})
	if err != nil {
		return fmt.Errorf("trace error: %w", err)
	}
	metrics.DriftWallClockSeconds.Observe(res.Drift.Duration.Seconds())

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("drift: +%d -%d ~%d (critical=%d high=%d)\n",
		res.Drift.Added, res.Drift.Removed, res.Drift.Modified,
		res.Drift.CriticalCount, res.Drift.HighCount)
	for _, rec := range res.Drift.Recommendations {
		fmt.Println("  -", rec)
	}
	for _, chain := range res.Claims {
		fmt.Printf("claim %s: %s (%.0f%% confidence)\n  %s\n",
			chain.ClaimID, chain.Verdict, chain.AggregateConfidence*100, chain.ReasoningText)
	}

	for _, item := range res.Drift.Items {
		if item.Severity == types.SevHigh {
			os.Exit(1)
		}
	}
	return nil
}
