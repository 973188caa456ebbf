// Package config is the ambient layered configuration reader. Grounded
// on the teacher's internal/config/config.go: the same pointer-field
// FileConfig shape (nil means "not set at this layer"), the same
// LoadFile/LoadLocal/LoadGlobal trio, generalized from Redactyl's
// secret-scanning knobs to VibeCheck's scan/drift/verify/ship knobs.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape. Every field is a
// pointer so a layer can distinguish "not set here" from "set to the
// zero value" when Resolve walks CLI > local > global > defaults.
type FileConfig struct {
	Include         *string  `yaml:"include"`
	Exclude         *string  `yaml:"exclude"`
	MaxBytes        *int64   `yaml:"max_bytes"`
	Threads         *int     `yaml:"threads"`
	MinConfidence   *float64 `yaml:"min_confidence"`
	NoColor         *bool    `yaml:"no_color"`
	DefaultExcludes *bool    `yaml:"default_excludes"`

	CacheDir      *string `yaml:"cache_dir"`
	CacheMaxBytes *int64  `yaml:"cache_max_bytes"`

	DriftMaxWallClockSeconds *int   `yaml:"drift_max_wall_clock_seconds"`
	DriftMaxFileBytes        *int64 `yaml:"drift_max_file_bytes"`

	VerifyRequiredSources    *int     `yaml:"verify_required_sources"`
	VerifyConsensusThreshold *float64 `yaml:"verify_consensus_threshold"`
	VerifySequential         *bool    `yaml:"verify_sequential"`

	ShipWeights *ShipWeightsConfig `yaml:"ship_weights"`

	MetricsAddr   *string `yaml:"metrics_addr"`
	AllowlistPath *string `yaml:"allowlist_path"`
	Watch         *bool   `yaml:"watch"`
}

// ShipWeightsConfig mirrors scorer.Weights as a YAML-settable vector.
type ShipWeightsConfig struct {
	Routes    *float64 `yaml:"routes"`
	Env       *float64 `yaml:"env"`
	Auth      *float64 `yaml:"auth"`
	Contracts *float64 `yaml:"contracts"`
}

// LoadFile reads a YAML config file from path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches repoRoot for a repo-local config file, trying
// .vibecheck.yml/.yaml and vibecheck.yml/.yaml in that order.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".vibecheck.yml", ".vibecheck.yaml", "vibecheck.yml", "vibecheck.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from $XDG_CONFIG_HOME or
// ~/.config/vibecheck/config.yml.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "vibecheck", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}
