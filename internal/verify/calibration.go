package verify

import (
	"math"
	"sync"

	"github.com/vibecheck/vibecheck/internal/types"
)

// calibrationKey identifies one (claim_type, source) calibration track.
type calibrationKey struct {
	ClaimType types.ClaimType
	Source    types.EvidenceSource
}

// bucket accumulates feedback falling within one confidence interval.
type bucket struct {
	total, correct int
}

func (b bucket) accuracy() float64 {
	if b.total == 0 {
		return 0
	}
	return float64(b.correct) / float64(b.total)
}

// defaultBoundaries are spec.md §4.K's calibration bucket edges.
var defaultBoundaries = []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1.0}

// Tracker maintains per-(claim_type, source) reliability-diagram buckets
// fed by user feedback, and exposes ECE/Brier calibration metrics.
type Tracker struct {
	mu         sync.Mutex
	boundaries []float64
	minSamples int
	buckets    map[calibrationKey][]bucket
	brierSum   float64
	brierCount int
}

const defaultMinSamplesPerBucket = 10

// NewTracker builds a calibration Tracker with spec.md §4.K's default
// boundaries and minimum-samples-per-bucket threshold.
func NewTracker() *Tracker {
	return &Tracker{
		boundaries: append([]float64(nil), defaultBoundaries...),
		minSamples: defaultMinSamplesPerBucket,
		buckets:    make(map[calibrationKey][]bucket),
	}
}

func (t *Tracker) bucketIndex(confidence float64) int {
	for i, b := range t.boundaries {
		if confidence <= b {
			return i
		}
	}
	return len(t.boundaries) - 1
}

// RecordFeedback ingests one (reported_confidence, was_correct) sample
// for the given (claim_type, source) track.
func (t *Tracker) RecordFeedback(claimType types.ClaimType, source types.EvidenceSource, reportedConfidence float64, wasCorrect bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := calibrationKey{ClaimType: claimType, Source: source}
	bs, ok := t.buckets[key]
	if !ok {
		bs = make([]bucket, len(t.boundaries))
		t.buckets[key] = bs
	}
	idx := t.bucketIndex(reportedConfidence)
	bs[idx].total++
	if wasCorrect {
		bs[idx].correct++
	}

	brierOutcome := 0.0
	if wasCorrect {
		brierOutcome = 1.0
	}
	t.brierSum += (reportedConfidence - brierOutcome) * (reportedConfidence - brierOutcome)
	t.brierCount++
}

// Remap maps a reported confidence to its bucket's observed accuracy,
// once that bucket has accumulated at least minSamples feedback entries;
// otherwise the reported confidence passes through unchanged.
func (t *Tracker) Remap(claimType types.ClaimType, source types.EvidenceSource, reportedConfidence float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := calibrationKey{ClaimType: claimType, Source: source}
	bs, ok := t.buckets[key]
	if !ok {
		return reportedConfidence
	}
	idx := t.bucketIndex(reportedConfidence)
	b := bs[idx]
	if b.total < t.minSamples {
		return reportedConfidence
	}
	return b.accuracy()
}

// ECE returns the Expected Calibration Error across every tracked
// (claim_type, source) bucket: the sample-weighted average gap between
// each bucket's reported confidence band and its observed accuracy.
func (t *Tracker) ECE() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var weightedGap float64
	var totalSamples int
	for _, bs := range t.buckets {
		for i, b := range bs {
			if b.total == 0 {
				continue
			}
			bandConfidence := t.boundaries[i]
			gap := math.Abs(bandConfidence - b.accuracy())
			weightedGap += gap * float64(b.total)
			totalSamples += b.total
		}
	}
	if totalSamples == 0 {
		return 0
	}
	return weightedGap / float64(totalSamples)
}

// Brier returns the mean squared error between every reported confidence
// and its eventual correctness outcome, across all feedback so far.
func (t *Tracker) Brier() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.brierCount == 0 {
		return 0
	}
	return t.brierSum / float64(t.brierCount)
}
