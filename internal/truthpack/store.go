// Package truthpack is component I: the four versioned truthpack
// records (routes, env, auth, contracts) persisted under
// <project>/.vibecheck/truthpack/. Grounded on the teacher's
// internal/config/config.go LoadFile/LoadLocal/LoadGlobal pattern —
// read-a-file-return-zero-value-on-absence — translated from YAML
// config onto JSON records, and validated on read via
// github.com/santhosh-tekuri/jsonschema/v6 so a structurally corrupt
// file degrades to an empty record instead of panicking deeper in the
// Drift Detector or Claim Verifier.
package truthpack

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/vibecheck/vibecheck/internal/errs"
	"github.com/vibecheck/vibecheck/internal/types"
)

const (
	routesVersion    = 1
	envVersion       = 1
	authVersion      = 1
	contractsVersion = 1
)

// Dir is the truthpack directory under a project root.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, ".vibecheck", "truthpack")
}

func recordPath(projectRoot, name string) string {
	return filepath.Join(Dir(projectRoot), name)
}

// LoadRoutes reads routes.json, best-effort: a missing or invalid file
// yields an empty versioned record rather than an error.
func LoadRoutes(projectRoot string) types.RoutesRecord {
	rec := types.RoutesRecord{Version: routesVersion}
	raw, ok := readBestEffort(recordPath(projectRoot, "routes.json"))
	if !ok {
		return rec
	}
	if err := validateJSON(&routesSch, "routes.json", routesSchema, raw); err != nil {
		return types.RoutesRecord{Version: routesVersion}
	}
	var decoded types.RoutesRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return rec
	}
	return decoded
}

// SaveRoutes atomically persists rec to routes.json.
func SaveRoutes(projectRoot string, rec types.RoutesRecord) error {
	return saveAtomic(recordPath(projectRoot, "routes.json"), rec)
}

// LoadEnv reads env.json, best-effort.
func LoadEnv(projectRoot string) types.EnvRecord {
	rec := types.EnvRecord{Version: envVersion}
	raw, ok := readBestEffort(recordPath(projectRoot, "env.json"))
	if !ok {
		return rec
	}
	if err := validateJSON(&envSch, "env.json", envSchema, raw); err != nil {
		return types.EnvRecord{Version: envVersion}
	}
	var decoded types.EnvRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return rec
	}
	return decoded
}

// SaveEnv atomically persists rec to env.json.
func SaveEnv(projectRoot string, rec types.EnvRecord) error {
	return saveAtomic(recordPath(projectRoot, "env.json"), rec)
}

// LoadAuth reads auth.json, best-effort.
func LoadAuth(projectRoot string) types.AuthRecord {
	rec := types.AuthRecord{Version: authVersion}
	raw, ok := readBestEffort(recordPath(projectRoot, "auth.json"))
	if !ok {
		return rec
	}
	if err := validateJSON(&authSch, "auth.json", authSchema, raw); err != nil {
		return types.AuthRecord{Version: authVersion}
	}
	var decoded types.AuthRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return rec
	}
	return decoded
}

// SaveAuth atomically persists rec to auth.json.
func SaveAuth(projectRoot string, rec types.AuthRecord) error {
	return saveAtomic(recordPath(projectRoot, "auth.json"), rec)
}

// LoadContracts reads contracts.json, best-effort.
func LoadContracts(projectRoot string) types.ContractsRecord {
	rec := types.ContractsRecord{Version: contractsVersion}
	raw, ok := readBestEffort(recordPath(projectRoot, "contracts.json"))
	if !ok {
		return rec
	}
	if err := validateJSON(&contractsSch, "contracts.json", contractsSchema, raw); err != nil {
		return types.ContractsRecord{Version: contractsVersion}
	}
	var decoded types.ContractsRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return rec
	}
	return decoded
}

// SaveContracts atomically persists rec to contracts.json.
func SaveContracts(projectRoot string, rec types.ContractsRecord) error {
	return saveAtomic(recordPath(projectRoot, "contracts.json"), rec)
}

// readBestEffort returns (data, true) on success, (nil, false) on any
// read failure — missing file, permission error, or otherwise.
func readBestEffort(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// saveAtomic writes v as indented JSON to a temp file in the same
// directory, fsyncs it, then renames it over path — spec.md §4.I's
// "write to temp, fsync, rename" requirement.
func saveAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Wrap(errs.CacheCorrupt, "creating truthpack directory", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ValidationError, "encoding truthpack record", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errs.Wrap(errs.CacheCorrupt, "creating truthpack temp file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errs.Wrap(errs.CacheCorrupt, "writing truthpack temp file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errs.Wrap(errs.CacheCorrupt, "fsyncing truthpack temp file", err)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.CacheCorrupt, "closing truthpack temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.CacheCorrupt, "renaming truthpack temp file", err)
	}
	return nil
}
