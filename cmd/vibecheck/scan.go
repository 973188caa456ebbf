package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vibecheck/vibecheck/internal/allowlist"
	"github.com/vibecheck/vibecheck/internal/artifact"
	vcconfig "github.com/vibecheck/vibecheck/internal/config"
	"github.com/vibecheck/vibecheck/internal/fingerprint"
	"github.com/vibecheck/vibecheck/internal/metrics"
	"github.com/vibecheck/vibecheck/internal/orchestrator"
	"github.com/vibecheck/vibecheck/internal/patterns"
	"github.com/vibecheck/vibecheck/internal/report"
	"github.com/vibecheck/vibecheck/internal/selfupdate"
	"github.com/vibecheck/vibecheck/internal/types"
	"github.com/vibecheck/vibecheck/pkg/vibecheck"
)

var (
	flagScanPath       string
	flagScanInclude    string
	flagScanExclude    string
	flagScanMaxBytes   int64
	flagScanArchives   bool
	flagScanContainers bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the Pattern Registry over a source tree",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagScanPath, "path", "p", ".", "path to scan")
	cmd.Flags().StringVar(&flagScanInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagScanExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagScanMaxBytes, "max-bytes", 10<<20, "skip files larger than this")
	cmd.Flags().BoolVar(&flagScanArchives, "archives", false, "also scan zip/tar archives found under path")
	cmd.Flags().BoolVar(&flagScanContainers, "containers", false, "also scan container image tarballs found under path")
}

// artifactLimits bounds deep archive/container extraction so a hostile or
// merely huge artifact can't stall a scan or exhaust memory.
var artifactLimits = artifact.Limits{
	MaxArchiveBytes: 200 << 20,
	MaxEntries:      10000,
	MaxDepth:        5,
	TimeBudget:      30 * time.Second,
	Workers:         4,
}

// scanArtifacts extracts members from archives and/or container tarballs
// under root and runs them through the same Pattern Registry and Context
// Filter as ordinary files, tagging each finding's path with the
// "archive.zip::inner/path" virtual path the extractor emits.
func scanArtifacts(root string, globs fingerprint.Globs, archives, containers bool) []types.Finding {
	if !archives && !containers {
		return nil
	}
	reg := patterns.Default()
	excludes := globs.Exclude
	if globs.DefaultExcludes {
		excludes = append(append([]string{}, fingerprint.DefaultExcludes...), excludes...)
	}
	allow := func(rel string) bool {
		return fingerprint.Allowed(rel, globs.Include, excludes)
	}
	var findings []types.Finding
	emit := func(path string, data []byte) {
		findings = append(findings, orchestrator.ScanBytes(path, data, reg)...)
	}
	if archives {
		_ = artifact.ScanArchivesWithFilter(root, artifactLimits, allow, emit)
	}
	if containers {
		_ = artifact.ScanContainersWithFilter(root, artifactLimits, allow, emit)
	}
	return findings
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	abs, err := filepath.Abs(flagScanPath)
	if err != nil {
		return err
	}
	resolved := resolveConfig(abs)

	if flagMetricsAddr != "" {
		go func() { _ = metrics.Serve(ctx, flagMetricsAddr) }()
	}
	if !flagNoUpdateCheck && !flagJSON && !flagSARIF {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'vibecheck update' to upgrade\n", latest)
		}
	}

	globs := fingerprint.Globs{
		Include:         splitCSV(flagScanInclude),
		Exclude:         splitCSV(flagScanExclude),
		DefaultExcludes: resolved.DefaultExcludes,
	}
	maxBytes := flagScanMaxBytes
	if !cmd.Flags().Changed("max-bytes") {
		maxBytes = resolved.MaxBytes
	}

	res, err := vibecheck.Scan(ctx, vibecheck.ScanOptions{
		Root:           abs,
		Globs:          globs,
		MaxBytes:       maxBytes,
		UseIncremental: true,
	})
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	metrics.ScansTotal.Inc()
	metrics.ScanDuration.Observe(res.Duration.Seconds())

	allFindings := res.Findings
	if flagScanArchives || flagScanContainers {
		allFindings = append(allFindings, scanArtifacts(abs, globs, flagScanArchives, flagScanContainers)...)
	}

	list, err := allowlist.Load(filepath.Join(abs, resolved.AllowlistPath))
	if err != nil {
		return fmt.Errorf("allowlist error: %w", err)
	}
	findings := list.Filter(allFindings)

	baselinePath := filepath.Join(abs, ".vibecheck", "baseline.json")
	baseline, _ := report.LoadBaseline(baselinePath)
	newFindings := report.FilterNewFindings(findings, baseline)
	if newFindings == nil {
		newFindings = []types.Finding{}
	}
	for _, f := range newFindings {
		metrics.FindingsTotal.WithLabelValues(string(f.Severity)).Inc()
	}

	opts := report.PrintOptions{
		NoColor:       flagNoColor,
		Duration:      res.Duration,
		FilesScanned:  res.FilesScanned,
		TotalFindings: len(findings),
	}
	switch {
	case flagSARIF:
		if err := report.WriteSARIF(os.Stdout, newFindings); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		if err := report.PrintJSON(os.Stdout, newFindings, opts); err != nil {
			return err
		}
	case flagTable:
		report.PrintTable(os.Stdout, newFindings, opts)
	default:
		report.PrintText(os.Stdout, newFindings, opts)
	}

	if report.ShouldFail(newFindings, flagFailOn) {
		os.Exit(1)
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func resolveConfig(root string) vcconfig.Resolved {
	var global, local vcconfig.FileConfig
	if c, err := vcconfig.LoadGlobal(); err == nil {
		global = c
	}
	if c, err := vcconfig.LoadLocal(root); err == nil {
		local = c
	}
	return vcconfig.Resolve(global, local, vcconfig.FileConfig{})
}

// signalContext returns a context canceled on SIGINT/SIGTERM, so a scan
// in flight winds down cleanly instead of leaving partial cache writes.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
