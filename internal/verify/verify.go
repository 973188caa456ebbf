// Package verify is component K: the Claim Verifier. Grounded on the
// teacher's internal/validate/validate.go, where every function is a
// pure "does this look real" predicate with no shared state — scaled up
// here from single-value validators into VerifierSource implementations
// that each return an Evidence judgment for a Claim, combined by a
// weighted-consensus aggregator.
package verify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vibecheck/vibecheck/internal/types"
)

// VerifierSource is one evidence producer. Implementations must be safe
// for concurrent use; Verify is called once per claim per enabled source.
type VerifierSource interface {
	Name() types.EvidenceSource
	Supports(claimType types.ClaimType) bool
	Verify(ctx context.Context, claim types.Claim) types.Evidence
}

// Config controls one Verify call.
type Config struct {
	Sources             []VerifierSource
	Sequential          bool          // default false: run sources in parallel
	PerSourceTimeout    time.Duration // default 5s
	RequiredSources     int           // default 1
	ConsensusThreshold  float64       // default 0.7, weighted-confidence floor
	SequentialEarlyExit float64       // default 0.9: stop sequential mode once a source clears this
}

const (
	defaultPerSourceTimeout   = 5 * time.Second
	defaultRequiredSources    = 1
	defaultConsensusThreshold = 0.7
	defaultEarlyExit          = 0.9
)

func (c Config) withDefaults() Config {
	if c.PerSourceTimeout <= 0 {
		c.PerSourceTimeout = defaultPerSourceTimeout
	}
	if c.RequiredSources <= 0 {
		c.RequiredSources = defaultRequiredSources
	}
	if c.ConsensusThreshold <= 0 {
		c.ConsensusThreshold = defaultConsensusThreshold
	}
	if c.SequentialEarlyExit <= 0 {
		c.SequentialEarlyExit = defaultEarlyExit
	}
	return c
}

// Verify runs every applicable source on claim and returns its Evidence Chain.
func Verify(ctx context.Context, claim types.Claim, cfg Config) types.EvidenceChain {
	cfg = cfg.withDefaults()

	var applicable []VerifierSource
	for _, s := range cfg.Sources {
		if s.Supports(claim.Type) {
			applicable = append(applicable, s)
		}
	}

	var evidence []types.Evidence
	if cfg.Sequential {
		evidence = runSequential(ctx, claim, applicable, cfg)
	} else {
		evidence = runParallel(ctx, claim, applicable, cfg)
	}

	return buildChain(claim, evidence, cfg)
}

func runParallel(ctx context.Context, claim types.Claim, sources []VerifierSource, cfg Config) []types.Evidence {
	results := make([]types.Evidence, len(sources))
	var wg sync.WaitGroup
	wg.Add(len(sources))
	for i, s := range sources {
		go func(i int, s VerifierSource) {
			defer wg.Done()
			results[i] = runOne(ctx, claim, s, cfg.PerSourceTimeout)
		}(i, s)
	}
	wg.Wait()
	return results
}

func runSequential(ctx context.Context, claim types.Claim, sources []VerifierSource, cfg Config) []types.Evidence {
	var results []types.Evidence
	for _, s := range sources {
		e := runOne(ctx, claim, s, cfg.PerSourceTimeout)
		results = append(results, e)
		if e.Verified && e.Confidence >= cfg.SequentialEarlyExit {
			break
		}
	}
	return results
}

func runOne(ctx context.Context, claim types.Claim, s VerifierSource, timeout time.Duration) types.Evidence {
	started := time.Now()
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct{ ev types.Evidence }
	ch := make(chan result, 1)
	go func() {
		ch <- result{ev: s.Verify(sctx, claim)}
	}()

	select {
	case r := <-ch:
		r.ev.Source = s.Name()
		r.ev.DurationMs = time.Since(started).Milliseconds()
		return r.ev
	case <-sctx.Done():
		return types.Evidence{
			Source:     s.Name(),
			Verified:   false,
			Confidence: 0,
			Details:    "source timed out",
			DurationMs: time.Since(started).Milliseconds(),
			Error:      sctx.Err().Error(),
		}
	}
}

// buildChain aggregates evidence via the fixed reliability-weighted
// consensus rule (spec.md §4.K step 3-5).
func buildChain(claim types.Claim, evidence []types.Evidence, cfg Config) types.EvidenceChain {
	sort.SliceStable(evidence, func(i, j int) bool { return evidence[i].Source < evidence[j].Source })

	var verifiedCount int
	var weightedSum, weightTotal float64
	steps := make([]types.EvidenceStep, 0, len(evidence))
	for i, e := range evidence {
		w := types.SourceReliability[e.Source]
		if w == 0 {
			w = 0.5
		}
		if e.Verified {
			verifiedCount++
			weightedSum += w * e.Confidence
		}
		weightTotal += w
		steps = append(steps, types.EvidenceStep{
			StepNo:     i + 1,
			Source:     e.Source,
			Supports:   e.Verified,
			Confidence: e.Confidence,
		})
	}

	var aggregate float64
	if weightTotal > 0 {
		aggregate = weightedSum / weightTotal
	}

	consensus := verifiedCount >= cfg.RequiredSources && aggregate >= cfg.ConsensusThreshold
	verdict := verdictFor(aggregate, consensus)

	reasoning := reasoningText(claim, evidence, verifiedCount, aggregate, consensus)

	return types.EvidenceChain{
		ClaimID:             claim.ID,
		Steps:               steps,
		Verdict:             verdict,
		AggregateConfidence: aggregate,
		ReasoningText:       reasoning,
		Display:             displayString(claim, verdict, aggregate, steps),
	}
}

// verdictFor maps aggregate confidence to the verdict ladder (spec.md
// §4.K step 4). Lack of consensus caps the verdict at uncertain even if
// the raw confidence number would otherwise read higher, since consensus
// failure means too few sources actually agreed.
func verdictFor(confidence float64, consensus bool) types.Verdict {
	switch {
	case confidence >= 0.9 && consensus:
		return types.VerdictConfirmed
	case confidence >= 0.7 && consensus:
		return types.VerdictLikely
	case confidence >= 0.5:
		return types.VerdictUncertain
	case confidence >= 0.3:
		return types.VerdictUnlikely
	default:
		return types.VerdictDismissed
	}
}

func reasoningText(claim types.Claim, evidence []types.Evidence, verifiedCount int, aggregate float64, consensus bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "claim %q (%s): %d/%d sources verified, weighted confidence %.2f",
		claim.Value, claim.Type, verifiedCount, len(evidence), aggregate)
	if consensus {
		b.WriteString(", consensus reached")
	} else {
		b.WriteString(", consensus not reached")
	}
	return b.String()
}

func displayString(claim types.Claim, verdict types.Verdict, aggregate float64, steps []types.EvidenceStep) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (confidence %.0f%%)\n", strings.ToUpper(string(verdict)), claim.Value, aggregate*100)
	for _, s := range steps {
		mark := "✗"
		if s.Supports {
			mark = "✓"
		}
		fmt.Fprintf(&b, "  %d. %s %s (%.0f%%)\n", s.StepNo, mark, s.Source, s.Confidence*100)
	}
	return b.String()
}
