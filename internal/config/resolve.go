package config

import "github.com/vibecheck/vibecheck/internal/scorer"

// Resolved is the fully merged, concrete-valued configuration a scan
// actually runs with, after CLI > local > global > defaults precedence.
type Resolved struct {
	Include         string
	Exclude         string
	MaxBytes        int64
	Threads         int
	MinConfidence   float64
	NoColor         bool
	DefaultExcludes bool

	CacheDir      string
	CacheMaxBytes int64

	DriftMaxWallClockSeconds int
	DriftMaxFileBytes        int64

	VerifyRequiredSources    int
	VerifyConsensusThreshold float64
	VerifySequential         bool

	ShipWeights scorer.Weights

	MetricsAddr   string
	AllowlistPath string
	Watch         bool
}

// Defaults returns the built-in fallback values for every Resolved field.
func Defaults() Resolved {
	return Resolved{
		MaxBytes:                 10 * 1024 * 1024,
		Threads:                  4,
		MinConfidence:            0,
		DefaultExcludes:          true,
		CacheDir:                 ".vibecheck/cache",
		CacheMaxBytes:            100 * 1024 * 1024,
		DriftMaxWallClockSeconds: 60,
		DriftMaxFileBytes:        1 << 20,
		VerifyRequiredSources:    1,
		VerifyConsensusThreshold: 0.7,
		ShipWeights:              scorer.DefaultWeights,
		AllowlistPath:            ".vibecheck/allowlist.txt",
	}
}

// Resolve layers cli over local over global over Defaults(); a nil
// pointer at any layer falls through to the next one. Layers are given
// lowest-to-highest precedence: global, local, cli.
func Resolve(global, local, cli FileConfig) Resolved {
	r := Defaults()
	for _, layer := range []FileConfig{global, local, cli} {
		applyLayer(&r, layer)
	}
	return r
}

func applyLayer(r *Resolved, f FileConfig) {
	if f.Include != nil {
		r.Include = *f.Include
	}
	if f.Exclude != nil {
		r.Exclude = *f.Exclude
	}
	if f.MaxBytes != nil {
		r.MaxBytes = *f.MaxBytes
	}
	if f.Threads != nil {
		r.Threads = *f.Threads
	}
	if f.MinConfidence != nil {
		r.MinConfidence = *f.MinConfidence
	}
	if f.NoColor != nil {
		r.NoColor = *f.NoColor
	}
	if f.DefaultExcludes != nil {
		r.DefaultExcludes = *f.DefaultExcludes
	}
	if f.CacheDir != nil {
		r.CacheDir = *f.CacheDir
	}
	if f.CacheMaxBytes != nil {
		r.CacheMaxBytes = *f.CacheMaxBytes
	}
	if f.DriftMaxWallClockSeconds != nil {
		r.DriftMaxWallClockSeconds = *f.DriftMaxWallClockSeconds
	}
	if f.DriftMaxFileBytes != nil {
		r.DriftMaxFileBytes = *f.DriftMaxFileBytes
	}
	if f.VerifyRequiredSources != nil {
		r.VerifyRequiredSources = *f.VerifyRequiredSources
	}
	if f.VerifyConsensusThreshold != nil {
		r.VerifyConsensusThreshold = *f.VerifyConsensusThreshold
	}
	if f.VerifySequential != nil {
		r.VerifySequential = *f.VerifySequential
	}
	if f.MetricsAddr != nil {
		r.MetricsAddr = *f.MetricsAddr
	}
	if f.AllowlistPath != nil {
		r.AllowlistPath = *f.AllowlistPath
	}
	if f.Watch != nil {
		r.Watch = *f.Watch
	}
	if f.ShipWeights != nil {
		applyWeights(&r.ShipWeights, f.ShipWeights)
	}
}

func applyWeights(w *scorer.Weights, f *ShipWeightsConfig) {
	if f.Routes != nil {
		w.Routes = *f.Routes
	}
	if f.Env != nil {
		w.Env = *f.Env
	}
	if f.Auth != nil {
		w.Auth = *f.Auth
	}
	if f.Contracts != nil {
		w.Contracts = *f.Contracts
	}
}
