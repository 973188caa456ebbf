package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkDefaultExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}")
	writeFile(t, root, "dist/bundle.js", "x")
	writeFile(t, root, "app.min.js", "x")

	paths, err := Walk(root, Globs{DefaultExcludes: true})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"src/main.go": true}
	got := map[string]bool{}
	for _, p := range paths {
		got[p] = true
	}
	for p := range want {
		if !got[p] {
			t.Errorf("expected %s to be walked", p)
		}
	}
	for _, excluded := range []string{"node_modules/pkg/index.js", "dist/bundle.js", "app.min.js"} {
		if got[excluded] {
			t.Errorf("expected %s to be excluded", excluded)
		}
	}
}

func TestWalkIncludeExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x")
	writeFile(t, root, "b.ts", "x")
	writeFile(t, root, "c.go", "x")

	paths, err := Walk(root, Globs{Include: []string{"**/*.go"}, Exclude: []string{"c.go"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != "a.go" {
		t.Fatalf("expected only a.go, got %v", paths)
	}
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.go", "x")
	writeFile(t, root, "a.go", "x")
	writeFile(t, root, "m.go", "x")

	p1, _ := Walk(root, Globs{})
	p2, _ := Walk(root, Globs{})
	if len(p1) != 3 {
		t.Fatalf("expected 3 files, got %d", len(p1))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("walk order not deterministic: %v vs %v", p1, p2)
		}
	}
	if p1[0] != "a.go" || p1[2] != "z.go" {
		t.Fatalf("expected sorted order, got %v", p1)
	}
}
