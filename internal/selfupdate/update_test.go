package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCheckNoOpInCI(t *testing.T) {
	t.Setenv("CI", "1")
	if latest, newer, err := Check("1.0.0", false); err != nil || latest != "" || newer {
		t.Fatalf("expected no-op in CI; got latest=%q newer=%v err=%v", latest, newer, err)
	}
}

func TestCheckNoOpWhenNoNetworkRequested(t *testing.T) {
	t.Setenv("CI", "")
	if latest, newer, err := Check("1.0.0", true); err != nil || latest != "" || newer {
		t.Fatalf("expected no-op with noNetwork; got latest=%q newer=%v err=%v", latest, newer, err)
	}
}

func TestCheckUsesCacheWhenFresh(t *testing.T) {
	t.Setenv("CI", "")
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	c := cacheFile{LastChecked: time.Now(), Latest: "1.2.3"}
	path := filepath.Join(dir, "vibecheck", "update.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(c)
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}

	latest, newer, err := Check("1.2.2", false)
	if err != nil {
		t.Fatal(err)
	}
	if latest != "1.2.3" || !newer {
		t.Fatalf("expected cached latest=1.2.3 and newer=true; got latest=%q newer=%v", latest, newer)
	}
}

func TestCheckCachedVersionNotNewerWhenEqual(t *testing.T) {
	t.Setenv("CI", "")
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	c := cacheFile{LastChecked: time.Now(), Latest: "1.2.3"}
	path := filepath.Join(dir, "vibecheck", "update.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(c)
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}

	latest, newer, err := Check("1.2.3", false)
	if err != nil {
		t.Fatal(err)
	}
	if latest != "1.2.3" || newer {
		t.Fatalf("expected not-newer for an equal version; got latest=%q newer=%v", latest, newer)
	}
}
