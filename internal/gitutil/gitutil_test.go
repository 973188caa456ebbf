package gitutil

import "testing"

func TestIsRepoFalseForNonRepo(t *testing.T) {
	dir := t.TempDir()
	if IsRepo(dir) {
		t.Fatal("expected a plain temp dir not to be detected as a git repo")
	}
}

func TestRepoMetadataEmptyForNonRepo(t *testing.T) {
	dir := t.TempDir()
	repo, commit, branch := RepoMetadata(dir)
	if repo != "" || commit != "" || branch != "" {
		t.Fatalf("expected empty metadata for non-repo, got repo=%q commit=%q branch=%q", repo, commit, branch)
	}
}

func TestNormalizeRemoteURL(t *testing.T) {
	cases := map[string]string{
		"git@github.com:acme/widgets.git":     "acme/widgets",
		"https://github.com/acme/widgets.git": "acme/widgets",
	}
	for in, want := range cases {
		if got := normalizeRemoteURL(in); got != want {
			t.Errorf("normalizeRemoteURL(%q) = %q, want %q", in, got, want)
		}
	}
}
