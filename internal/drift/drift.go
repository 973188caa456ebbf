// Package drift is component J: four independent sub-detectors (route,
// env, auth, type) that each extract a fresh "codebase view" and diff it
// against the Truthpack Store (component I). Grounded on the teacher's
// internal/detectors/structured.go: a per-line/per-field classification
// loop (substring-match a key, then validate the value), generalized from
// "does this look like a leaked secret" into "does this route/env/auth/
// type tuple match what the truthpack recorded."
package drift

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vibecheck/vibecheck/internal/fingerprint"
	"github.com/vibecheck/vibecheck/internal/truthpack"
	"github.com/vibecheck/vibecheck/internal/types"
)

// Config controls one drift run.
type Config struct {
	Root string
	// Files is the candidate file set (already glob-filtered by the
	// caller's FileWalker pass); drift only looks at files its own
	// per-detector predicates accept out of this set.
	Files []string

	MaxWallClock time.Duration // default 60s
	MaxFileBytes int64         // default 1 MiB
}

const (
	defaultMaxWallClock = 60 * time.Second
	defaultMaxFileBytes = 1 << 20
)

// Summary is the aggregate drift report spec.md §4.J requires.
type Summary struct {
	Items           []types.DriftItem
	Added           int
	Removed         int
	Modified        int
	TotalDrift      int
	CriticalCount   int
	HighCount       int
	Recommendations []string
	Duration        time.Duration
}

// Run executes the four sub-detectors concurrently, each bounded by
// MaxWallClock and MaxFileBytes, and merges their drift items into one
// Summary.
func Run(ctx context.Context, cfg Config) Summary {
	started := time.Now()
	wall := cfg.MaxWallClock
	if wall <= 0 {
		wall = defaultMaxWallClock
	}
	maxBytes := cfg.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}
	ctx, cancel := context.WithTimeout(ctx, wall)
	defer cancel()

	routesRec := truthpack.LoadRoutes(cfg.Root)
	envRec := truthpack.LoadEnv(cfg.Root)
	authRec := truthpack.LoadAuth(cfg.Root)
	contractsRec := truthpack.LoadContracts(cfg.Root)

	var (
		wg                                         sync.WaitGroup
		routeItems, envItems, authItems, typeItems []types.DriftItem
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		routeItems = detectRouteDrift(ctx, cfg.Root, cfg.Files, maxBytes, routesRec)
	}()
	go func() {
		defer wg.Done()
		envItems = detectEnvDrift(ctx, cfg.Root, cfg.Files, maxBytes, envRec)
	}()
	go func() {
		defer wg.Done()
		authItems = detectAuthDrift(ctx, cfg.Root, cfg.Files, maxBytes, authRec)
	}()
	go func() {
		defer wg.Done()
		typeItems = detectTypeDrift(ctx, cfg.Root, cfg.Files, maxBytes, contractsRec)
	}()
	wg.Wait()

	var all []types.DriftItem
	all = append(all, routeItems...)
	all = append(all, envItems...)
	all = append(all, authItems...)
	all = append(all, typeItems...)

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Identifier < b.Identifier
	})

	sum := Summary{Items: all, Duration: time.Since(started)}
	for _, it := range all {
		switch it.ChangeType {
		case types.DriftAdded:
			sum.Added++
		case types.DriftRemoved:
			sum.Removed++
		case types.DriftModified:
			sum.Modified++
		}
		switch it.Severity {
		case types.SevCritical:
			sum.CriticalCount++
		case types.SevHigh:
			sum.HighCount++
		}
	}
	sum.TotalDrift = len(all)
	sum.Recommendations = recommendations(sum, routesRec, envRec, authRec)
	return sum
}

func recommendations(sum Summary, routes types.RoutesRecord, env types.EnvRecord, auth types.AuthRecord) []string {
	var recs []string
	if len(routes.Routes) == 0 {
		recs = append(recs, "no routes recorded in the truthpack — run a baseline extraction before trusting route drift")
	}
	if len(env.Variables) == 0 {
		recs = append(recs, "no environment variables recorded in the truthpack — env drift will only report additions")
	}
	if len(auth.Rules) == 0 {
		recs = append(recs, "no auth rules recorded in the truthpack — protection removals cannot be detected")
	}
	if sum.CriticalCount > 0 {
		recs = append(recs, "critical drift detected — review auth/route removals before shipping")
	}
	return recs
}

// readCapped reads a file's content, skipping anything over maxBytes
// (spec.md §4.J's per-file size ceiling).
func readCapped(root, relPath string, maxBytes int64) ([]byte, bool) {
	return fingerprint.ReadCapped(root, relPath, maxBytes)
}
