// Package vibecheck is a small, stable facade over the internal scan,
// drift, verify, score, and autofix engines for external integrations —
// grounded on the teacher's pkg/core/core.go, which re-exports a narrow
// API surface (type aliases plus a handful of top-level functions) so
// external tools can depend on one stable import path instead of reaching
// into internal packages.
package vibecheck

import (
	"context"
	"time"

	"github.com/vibecheck/vibecheck/internal/autofix"
	"github.com/vibecheck/vibecheck/internal/cache"
	"github.com/vibecheck/vibecheck/internal/drift"
	"github.com/vibecheck/vibecheck/internal/fingerprint"
	"github.com/vibecheck/vibecheck/internal/orchestrator"
	"github.com/vibecheck/vibecheck/internal/patterns"
	"github.com/vibecheck/vibecheck/internal/scorer"
	"github.com/vibecheck/vibecheck/internal/truthpack"
	"github.com/vibecheck/vibecheck/internal/types"
	"github.com/vibecheck/vibecheck/internal/verify"
)

// Re-exported types, so callers never need to import internal packages
// directly — mirrors the teacher's `type Config = engine.Config` aliasing.
type (
	Finding     = types.Finding
	DriftItem   = types.DriftItem
	ShipVerdict = types.ShipVerdict
)

// ScanOptions controls Scan.
type ScanOptions struct {
	Root           string
	Globs          fingerprint.Globs
	MaxBytes       int64
	Registry       *patterns.Registry
	Cache          *cache.MultiLevel
	UseIncremental bool
	UseGitDiff     bool
}

// ScanResult is the outcome of Scan.
type ScanResult struct {
	Findings     []types.Finding
	FilesScanned int
	CacheHits    int
	Duration     time.Duration
}

// Scan runs the full component A-H pipeline over opts.Root.
func Scan(ctx context.Context, opts ScanOptions) (ScanResult, error) {
	res, err := orchestrator.ScanWithStats(ctx, orchestrator.Config{
		Root:           opts.Root,
		Globs:          opts.Globs,
		MaxBytes:       opts.MaxBytes,
		Registry:       opts.Registry,
		Cache:          opts.Cache,
		UseIncremental: opts.UseIncremental,
		UseGitDiff:     opts.UseGitDiff,
	})
	if err != nil {
		return ScanResult{}, err
	}
	return ScanResult{
		Findings:     res.Findings,
		FilesScanned: res.FilesScanned,
		CacheHits:    res.CacheHits,
		Duration:     res.Duration,
	}, nil
}

// TraceOptions controls Trace.
type TraceOptions struct {
	Root  string
	Files []string // candidate file set; nil => Drift Detector requires an explicit list
}

// TraceResult combines drift detection with claim-verification evidence
// over findings a scan surfaced, matching the CLI's `trace` verb
// ("drift + flow analysis").
type TraceResult struct {
	Drift  drift.Summary
	Claims []types.EvidenceChain
}

// Trace runs the Drift Detector against the recorded Truthpack, then
// verifies every "flow" claim (imports, function calls, type references)
// implied by drift items that describe code the truthpack doesn't
// recognize.
func Trace(ctx context.Context, opts TraceOptions) (TraceResult, error) {
	summary := drift.Run(ctx, drift.Config{Root: opts.Root, Files: opts.Files})

	claims := claimsFromDrift(summary.Items)
	sources := verify.DefaultSources(opts.Root)
	chains := make([]types.EvidenceChain, 0, len(claims))
	for _, c := range claims {
		chains = append(chains, verify.Verify(ctx, c, verify.Config{Sources: sources}))
	}

	return TraceResult{Drift: summary, Claims: chains}, nil
}

func claimsFromDrift(items []types.DriftItem) []types.Claim {
	claims := make([]types.Claim, 0, len(items))
	for _, item := range items {
		ct := types.ClaimAPIEndpoint
		switch item.Category {
		case types.DriftEnv:
			ct = types.ClaimEnvVariable
		case types.DriftType:
			ct = types.ClaimTypeReference
		}
		claims = append(claims, types.Claim{
			ID:       "drift-" + item.Identifier + "-" + string(item.ChangeType),
			Type:     ct,
			Value:    item.Identifier,
			Location: item.Identifier,
			Context:  string(item.ChangeType),
		})
	}
	return claims
}

// ShipOptions controls Ship.
type ShipOptions struct {
	Root    string
	Weights scorer.Weights // zero value => scorer.DefaultWeights
}

// ShipResult is a full scan plus the resulting Ship Score verdict.
type ShipResult struct {
	Scan        ScanResult
	Score       scorer.Result
	Diagnostics []string
}

// Ship runs Scan, loads the Truthpack Store, and aggregates both into a
// Ship Score verdict (spec.md §4.L): `ship` is "scan + verify + score."
func Ship(ctx context.Context, opts ShipOptions) (ShipResult, error) {
	scanRes, err := Scan(ctx, ScanOptions{Root: opts.Root})
	if err != nil {
		return ShipResult{}, err
	}

	weights := opts.Weights
	if (weights == scorer.Weights{}) {
		weights = scorer.DefaultWeights
	}

	routes := truthpack.LoadRoutes(opts.Root)
	env := truthpack.LoadEnv(opts.Root)
	auth := truthpack.LoadAuth(opts.Root)
	contracts := truthpack.LoadContracts(opts.Root)

	inputs := scorer.InputsFromTruthpack(routes, env, auth, contracts)
	result := scorer.Score(inputs, weights)

	return ShipResult{Scan: scanRes, Score: result, Diagnostics: result.Diagnostics}, nil
}

// FixOptions controls Fix.
type FixOptions struct {
	Root          string
	Findings      []types.Finding
	MinConfidence float64
	DryRun        bool
}

// FixResult is the outcome of Fix: the planned replacements and, unless
// DryRun was set, the persisted Transaction an operator can later roll
// back with Rollback.
type FixResult struct {
	Planned     []autofix.Replacement
	Transaction autofix.Transaction
	Applied     bool
}

// Fix plans and, unless opts.DryRun, applies autofixes for every
// autofixable, sufficiently confident finding — the `fix` CLI verb's
// entrypoint.
func Fix(ctx context.Context, opts FixOptions) (FixResult, error) {
	reps, err := autofix.PlanFixes(opts.Root, opts.Findings, opts.MinConfidence)
	if err != nil {
		return FixResult{}, err
	}
	if opts.DryRun || len(reps) == 0 {
		return FixResult{Planned: reps}, nil
	}
	tx, err := autofix.Apply(opts.Root, reps)
	if err != nil {
		return FixResult{Planned: reps}, err
	}
	return FixResult{Planned: reps, Transaction: tx, Applied: true}, nil
}

// Rollback undoes a previously applied Fix transaction by id.
func Rollback(root, txID string) error {
	tx, err := autofix.LoadTransaction(root, txID)
	if err != nil {
		return err
	}
	return autofix.Rollback(root, tx)
}
