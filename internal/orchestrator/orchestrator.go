// Package orchestrator is component H: it wires components A-G into the
// single `scan` pipeline spec.md §4.H names — changed set, cache probe,
// worker pool dispatch, merge, persist. Grounded on the top half of the
// teacher's internal/engine/engine.go ScanWithStats: that function
// enumerates files, consults a flat hash cache, and fans changed files
// out across a bounded worker pool, accumulating into one []types.Finding
// slice before a single best-effort cache save at the end. This package
// keeps that shape and generalizes the flat cache into the Multi-Level
// Cache (component D) and the flat hash map into the full Incremental
// State (component G).
package orchestrator

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/vibecheck/vibecheck/internal/cache"
	"github.com/vibecheck/vibecheck/internal/dispatcher"
	"github.com/vibecheck/vibecheck/internal/fingerprint"
	"github.com/vibecheck/vibecheck/internal/incremental"
	"github.com/vibecheck/vibecheck/internal/logging"
	"github.com/vibecheck/vibecheck/internal/patterns"
	"github.com/vibecheck/vibecheck/internal/types"
	"github.com/vibecheck/vibecheck/internal/workerpool"
)

// Config controls one orchestrated scan.
type Config struct {
	Root     string
	Globs    fingerprint.Globs
	MaxBytes int64

	Registry *patterns.Registry // nil => patterns.Default()
	Cache    *cache.MultiLevel  // nil => scan-result cache disabled
	Pool     *workerpool.Pool   // nil => a pool is built for this scan

	UseIncremental bool
	UseGitDiff     bool
	MaxCacheAgeMs  int64

	Dispatcher *dispatcher.Dispatcher // nil => no event stream
	Log        logging.Logger         // nil => logging.Nop()
}

// Result is a scan's findings plus basic stats (spec.md §4.H step 8).
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	CacheHits    int
	Duration     time.Duration
}

// scanCacheKeyPrefix namespaces scan-result cache entries within the
// shared Multi-Level Cache, per spec.md §4.H step 4's `"scan" + path +
// content_hash` key.
const scanCacheKeyPrefix = "scan:"

// Scan runs ScanWithStats and returns only the findings.
func Scan(ctx context.Context, cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// ScanWithStats runs the full component A-G pipeline spec.md §4.H
// prescribes: (1) ensure initialization, (2) build change set, (3) emit
// cached findings for unchanged paths, (4) consult the Multi-Level Cache
// for changed paths, (5) submit cache-missing paths to the Worker Pool,
// (6) accumulate per-file findings, (7) update the incremental state and
// cache, (8) deliver deterministically ordered, deduplicated results.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	var result Result
	started := time.Now()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	log := cfg.Log
	if log == nil {
		log = logging.Nop()
	}

	// (1) ensure initialization
	reg := cfg.Registry
	if reg == nil {
		reg = patterns.Default()
	}

	files, err := fingerprint.Walk(cfg.Root, cfg.Globs)
	if err != nil {
		return result, err
	}

	var state *incremental.State
	if cfg.UseIncremental {
		state, err = incremental.Load(cfg.Root, cfg.MaxCacheAgeMs)
		if err != nil {
			return result, err
		}
	} else {
		state = nil
	}

	disp := cfg.Dispatcher
	if disp == nil {
		disp = dispatcher.New(len(files))
		// No caller is consuming this dispatcher's event stream (they
		// didn't pass one in), so drain it ourselves to avoid filling
		// its bounded channel and deadlocking the scan.
		go func() {
			for range disp.Events() {
			}
		}()
	}
	disp.Start()

	// (2) build change set
	var changed map[string]bool
	var unchanged []string
	if state != nil {
		cs := incremental.Compute(state, cfg.Root, files, cfg.UseGitDiff)
		changed = make(map[string]bool, len(cs.Added)+len(cs.Modified)+len(cs.Affected))
		for _, p := range cs.Added {
			changed[p] = true
		}
		for _, p := range cs.Modified {
			changed[p] = true
		}
		for _, p := range cs.Affected {
			changed[p] = true
		}
		for _, p := range files {
			if !changed[p] {
				unchanged = append(unchanged, p)
			}
		}
	} else {
		unchanged = nil
		changed = make(map[string]bool, len(files))
		for _, p := range files {
			changed[p] = true
		}
	}

	var findings []types.Finding

	// (3) emit cached findings for unchanged paths
	if state != nil {
		for _, p := range unchanged {
			for _, f := range state.CachedFindings[p] {
				findings = append(findings, f)
				disp.Finding(f)
			}
			disp.FileComplete(p, 0)
		}
	}

	var changedList []string
	for p := range changed {
		changedList = append(changedList, p)
	}
	sort.Strings(changedList)

	scannedHashes := make(map[string]types.Fingerprint, len(changedList))
	newFindingsByPath := make(map[string][]types.Finding, len(changedList))
	newDeps := make(map[string][]string, len(changedList))
	knownFiles := make(map[string]bool, len(files))
	for _, f := range files {
		knownFiles[f] = true
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxScanBytes
	}

	pool := cfg.Pool
	ownPool := false
	if pool == nil && len(changedList) > 0 {
		pool = workerpool.New(func(ctx context.Context, input any) (any, error) {
			path := input.(string)
			fs, err := scanFile(cfg.Root, path, reg, maxBytes)
			return fs, err
		}, workerpool.Options{})
		ownPool = true
	}

	// (4)+(5) consult cache, then dispatch cache misses to the Worker Pool
	var toSubmit []workerpool.Task
	cacheHit := make(map[string]bool, len(changedList))
	for _, p := range changedList {
		fp := fingerprint.FingerprintFile(cfg.Root, p)
		scannedHashes[p] = fp

		if cfg.Cache != nil {
			key := scanCacheKeyPrefix + p + ":" + fp.ContentHash
			if raw, ok := cfg.Cache.Get(key); ok {
				fs, decodeErr := decodeFindings(raw)
				if decodeErr == nil {
					newFindingsByPath[p] = fs
					cacheHit[p] = true
					result.CacheHits++
					continue
				}
			}
		}
		toSubmit = append(toSubmit, workerpool.Task{ID: p, Input: p})
	}

	if len(toSubmit) > 0 && pool != nil {
		out, err := pool.SubmitStream(toSubmit)
		if err != nil {
			return result, err
		}
		for r := range out {
			fileStart := time.Now()
			if r.Err != nil {
				disp.Error(r.TaskID, r.Err.Error())
				disp.FileComplete(r.TaskID, 0)
				continue
			}
			fs, _ := r.Output.([]types.Finding)
			newFindingsByPath[r.TaskID] = fs
			if cfg.Cache != nil {
				if raw, encErr := encodeFindings(fs); encErr == nil {
					fp := scannedHashes[r.TaskID]
					cfg.Cache.Set(scanCacheKeyPrefix+r.TaskID+":"+fp.ContentHash, raw, 0)
				}
			}
			for _, f := range fs {
				findings = append(findings, f)
				disp.Finding(f)
			}
			disp.FileComplete(r.TaskID, time.Since(fileStart).Milliseconds())
		}
	}
	if ownPool {
		pool.Shutdown()
	}

	// (6) dispatch cache-hit findings (the pool-result loop above already
	// dispatched findings for files it scanned) and extract the dependency
	// graph for the next incremental run while we have every path in hand.
	for _, p := range changedList {
		if cacheHit[p] {
			fs := newFindingsByPath[p]
			for _, f := range fs {
				findings = append(findings, f)
				disp.Finding(f)
			}
			disp.FileComplete(p, 0)
		}
		if state != nil {
			newDeps[p] = extractDeps(cfg.Root, p, knownFiles)
		}
	}
	result.FilesScanned = len(changedList)

	// (7) update incremental state
	if state != nil {
		if err := state.UpdateState(scannedHashes, newFindingsByPath, newDeps, ""); err != nil {
			log.Warnf("incremental: failed to persist state: %v", err)
		}
	}

	// (8) deterministic, deduplicated delivery
	findings = dedupeFindings(findings)
	sortFindings(findings)

	disp.Complete()

	result.Findings = findings
	result.Duration = time.Since(started)
	return result, nil
}

// dedupeFindings applies spec.md §4.H's run-wide dedup key:
// (path, line, column, pattern_id, redacted_evidence).
func dedupeFindings(in []types.Finding) []types.Finding {
	seen := make(map[string]bool, len(in))
	out := make([]types.Finding, 0, len(in))
	for _, f := range in {
		key := f.Path + "|" + strconv.Itoa(f.Line) + "|" + strconv.Itoa(f.Column) + "|" + f.PatternID + "|" + f.RedactedEvidence
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// sortFindings applies the stable primary sort spec.md §4.H requires:
// most severe first, then (path, line, column, pattern_id) ascending.
func sortFindings(fs []types.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.PatternID < b.PatternID
	})
}

func extractDeps(root, relPath string, known map[string]bool) []string {
	return incremental.ExtractDependencies(root, relPath, known)
}
