package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vibecheck/vibecheck/internal/metrics"
	"github.com/vibecheck/vibecheck/internal/report"
	"github.com/vibecheck/vibecheck/internal/types"
	"github.com/vibecheck/vibecheck/pkg/vibecheck"
)

var flagShipPath string

func init() {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Scan, verify, and score a Ship readiness verdict",
		RunE:  runShip,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVarP(&flagShipPath, "path", "p", ".", "path to evaluate")
}

func runShip(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	abs, err := filepath.Abs(flagShipPath)
	if err != nil {
		return err
	}
	resolved := resolveConfig(abs)

	if flagMetricsAddr != "" {
		go func() { _ = metrics.Serve(ctx, flagMetricsAddr) }()
	}

	res, err := vibecheck.Ship(ctx, vibecheck.ShipOptions{Root: abs, Weights: resolved.ShipWeights})
	if err != nil {
		return fmt.Errorf("ship error: %w", err)
	}
	metrics.ShipScore.Set(float64(res.Score.Score))

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Score); err != nil {
			return err
		}
	} else {
		report.PrintShipBanner(os.Stdout, res.Score.Score, res.Score.Verdict, res.Diagnostics, flagNoColor)
	}

	if res.Score.Verdict == types.VerdictBlock {
		os.Exit(1)
	}
	return nil
}
