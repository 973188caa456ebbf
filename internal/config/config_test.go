package config

import (
	"os"
	"path/filepath"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestResolveAppliesPrecedenceCLIOverLocalOverGlobalOverDefaults(t *testing.T) {
	global := FileConfig{Threads: ptr(2), MaxBytes: ptr(int64(1000))}
	local := FileConfig{Threads: ptr(8)}
	cli := FileConfig{MinConfidence: ptr(0.5)}

	r := Resolve(global, local, cli)
	if r.Threads != 8 {
		t.Fatalf("expected local to override global threads, got %d", r.Threads)
	}
	if r.MaxBytes != 1000 {
		t.Fatalf("expected global MaxBytes to survive, got %d", r.MaxBytes)
	}
	if r.MinConfidence != 0.5 {
		t.Fatalf("expected cli MinConfidence to apply, got %f", r.MinConfidence)
	}
	if r.DefaultExcludes != true {
		t.Fatalf("expected untouched field to keep its default")
	}
}

func TestResolveMergesShipWeightsPartially(t *testing.T) {
	local := FileConfig{ShipWeights: &ShipWeightsConfig{Routes: ptr(0.5)}}
	r := Resolve(FileConfig{}, local, FileConfig{})
	if r.ShipWeights.Routes != 0.5 {
		t.Fatalf("expected overridden routes weight, got %f", r.ShipWeights.Routes)
	}
	if r.ShipWeights.Env != 0.20 {
		t.Fatalf("expected default env weight to survive partial override, got %f", r.ShipWeights.Env)
	}
}

func TestLoadLocalFindsDotVibecheckYML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".vibecheck.yml"), []byte("threads: 6\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 6 {
		t.Fatalf("expected threads=6, got %+v", cfg.Threads)
	}
}

func TestLoadLocalErrorsWhenNoConfigPresent(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config file exists")
	}
}
