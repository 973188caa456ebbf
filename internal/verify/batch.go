package verify

import (
	"context"
	"sync"

	"github.com/vibecheck/vibecheck/internal/types"
)

// BatchConfig wraps Config with the batch concurrency bound.
type BatchConfig struct {
	Config
	Concurrency int // default 10
}

const defaultBatchConcurrency = 10

// BatchResult is one claim's outcome within a batch run.
type BatchResult struct {
	Claim types.Claim
	Chain types.EvidenceChain
}

// BatchSummary histograms a batch run by verdict and by source.
type BatchSummary struct {
	ByVerdict map[types.Verdict]int
	BySource  map[types.EvidenceSource]int
}

// Batch runs claims through Verify under a bounded worker count and
// returns per-claim results plus a summary histogram (spec.md §4.K
// batch mode).
func Batch(ctx context.Context, claims []types.Claim, cfg BatchConfig) ([]BatchResult, BatchSummary) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	results := make([]BatchResult, len(claims))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	wg.Add(len(claims))
	for i, claim := range claims {
		sem <- struct{}{}
		go func(i int, claim types.Claim) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = BatchResult{Claim: claim, Chain: Verify(ctx, claim, cfg.Config)}
		}(i, claim)
	}
	wg.Wait()

	summary := BatchSummary{
		ByVerdict: make(map[types.Verdict]int),
		BySource:  make(map[types.EvidenceSource]int),
	}
	for _, r := range results {
		summary.ByVerdict[r.Chain.Verdict]++
		for _, step := range r.Chain.Steps {
			summary.BySource[step.Source]++
		}
	}
	return results, summary
}
