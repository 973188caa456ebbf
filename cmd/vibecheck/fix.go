package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/vibecheck/vibecheck/internal/allowlist"
	"github.com/vibecheck/vibecheck/pkg/vibecheck"
)

var (
	flagFixPath       string
	flagFixApply      bool
	flagFixConfidence float64
	flagFixRollback   string
)

func init() {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Plan and apply autofixes for autofixable findings",
		RunE:  runFix,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagFixPath, "path", "p", ".", "path to scan and fix")
	cmd.Flags().BoolVar(&flagFixApply, "apply", false, "write fixes to disk (default is a dry-run plan)")
	cmd.Flags().Float64Var(&flagFixConfidence, "confidence", 0.8, "minimum finding confidence required to autofix")
	cmd.Flags().StringVar(&flagFixRollback, "rollback", "", "undo a previously applied fix transaction by id")
}

func runFix(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	abs, err := filepath.Abs(flagFixPath)
	if err != nil {
		return err
	}

	if flagFixRollback != "" {
		if err := vibecheck.Rollback(abs, flagFixRollback); err != nil {
			return fmt.Errorf("rollback error: %w", err)
		}
		fmt.Println("rolled back", flagFixRollback)
		return nil
	}

	resolved := resolveConfig(abs)
	scanRes, err := vibecheck.Scan(ctx, vibecheck.ScanOptions{Root: abs, UseIncremental: true})
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	list, err := allowlist.Load(filepath.Join(abs, resolved.AllowlistPath))
	if err != nil {
		return fmt.Errorf("allowlist error: %w", err)
	}
	findings := list.Filter(scanRes.Findings)

	res, err := vibecheck.Fix(ctx, vibecheck.FixOptions{
		Root:          abs,
		Findings:      findings,
		MinConfidence: flagFixConfidence,
		DryRun:        !flagFixApply,
	})
	if err != nil {
		return fmt.Errorf("fix error: %w", err)
	}

	if len(res.Planned) == 0 {
		fmt.Println("no autofixable findings at or above confidence", flagFixConfidence)
		return nil
	}
	for _, r := range res.Planned {
		fmt.Printf("%s:%d: %q -> %q\n", r.Path, r.Line, r.OldText, r.NewText)
	}

	if !res.Applied {
		fmt.Println("(dry-run) rerun with --apply to write these changes")
		return nil
	}

	fmt.Println("applied transaction", res.Transaction.ID)
	if err := clipboard.WriteAll(res.Transaction.ID); err == nil {
		fmt.Fprintln(os.Stderr, "(transaction id copied to clipboard)")
	}
	return nil
}
