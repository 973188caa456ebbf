// Package update is VibeCheck's self-update check and apply path,
// grounded on the teacher's cmd/redactyl/utils.go selfUpdate() and its
// own internal/update's 24h-cached GitHub release check, merged into one
// package: Check is cache-backed version comparison via
// github.com/blang/semver/v4; Apply drives the actual binary replacement
// through github.com/rhysd/go-github-selfupdate/selfupdate, whose
// UpdateSelf signature takes the older github.com/blang/semver (v3) type
// — the teacher imports both versions for exactly this reason, converting
// a v4-parsed version to v3 at the call site rather than duplicating the
// comparison logic.
package update

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

const repoSlug = "vibecheck/vibecheck"

type cacheFile struct {
	LastChecked time.Time `json:"last_checked"`
	Latest      string    `json:"latest"`
}

func configDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "vibecheck")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "vibecheck")
}

func loadCache() (cacheFile, error) {
	var c cacheFile
	dir := configDir()
	if dir == "" {
		return c, errors.New("no config dir")
	}
	b, err := os.ReadFile(filepath.Join(dir, "update.json"))
	if err != nil {
		return c, err
	}
	_ = json.Unmarshal(b, &c)
	return c, nil
}

func saveCache(c cacheFile) {
	dir := configDir()
	if dir == "" {
		return
	}
	_ = os.MkdirAll(dir, 0755)
	b, _ := json.MarshalIndent(c, "", "  ")
	_ = os.WriteFile(filepath.Join(dir, "update.json"), b, 0644)
}

// Check returns (latest, isNewer, error), consulting a 24h cache before
// hitting GitHub. Skips the network in CI or when noNetwork is set.
func Check(current string, noNetwork bool) (string, bool, error) {
	if os.Getenv("CI") != "" || noNetwork {
		return "", false, nil
	}
	curVer, err := semver.ParseTolerant(current)
	if err != nil {
		curVer = semver.MustParse("0.0.0")
	}

	c, _ := loadCache()
	latest := c.Latest
	if time.Since(c.LastChecked) > 24*time.Hour || latest == "" {
		rel, found, err := selfupdate.DetectLatest(repoSlug)
		if err == nil && found {
			latest = rel.Version.String()
			c.Latest = latest
			c.LastChecked = time.Now()
			saveCache(c)
		}
	}
	if latest == "" {
		return "", false, nil
	}
	latestVer, err := semver.ParseTolerant(latest)
	if err != nil {
		return latest, false, nil
	}
	return latest, latestVer.GT(curVer), nil
}

// Apply replaces the running binary with the latest GitHub release,
// mirroring the teacher's selfUpdate(): parse the current version with
// v4, hand it to UpdateSelf as a v3 value (the library's own type).
func Apply(current string) (*selfupdate.Release, error) {
	ver, err := semver.ParseTolerant(current)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), repoSlug)
	if err != nil {
		return nil, err
	}
	return latest, nil
}
