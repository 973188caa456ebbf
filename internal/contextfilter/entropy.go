// Package contextfilter is component C: Shannon entropy scoring, the
// false-positive token heuristics, file-context classification, and the
// severity adjustment ladder. Grounded on the teacher's
// internal/detectors/entropy.go (entropy()) and
// internal/detectors/validators.go (the findingValidator confidence-bump
// heuristics), generalized from detector-specific validators into a
// single entropy/context pass every Pattern Registry match goes through.
package contextfilter

import "math"

// Entropy computes the Shannon entropy, in bits per character, of s.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int, len(s))
	for _, r := range s {
		counts[r]++
	}
	n := float64(len([]rune(s)))
	h := 0.0
	for _, c := range counts {
		p := float64(c) / n
		h += -p * math.Log2(p)
	}
	return h
}
