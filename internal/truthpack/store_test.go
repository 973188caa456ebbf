package truthpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vibecheck/vibecheck/internal/types"
)

func TestSaveThenLoadRoutesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := types.RoutesRecord{
		Version: 1,
		Routes: []types.Route{
			{Method: "GET", Path: "/users/:id", Handler: "getUser", Middleware: []string{"auth"}},
		},
	}
	if err := SaveRoutes(dir, rec); err != nil {
		t.Fatalf("SaveRoutes: %v", err)
	}
	got := LoadRoutes(dir)
	if len(got.Routes) != 1 || got.Routes[0].Path != "/users/:id" {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestLoadMissingFileYieldsEmptyRecord(t *testing.T) {
	dir := t.TempDir()
	got := LoadEnv(dir)
	if got.Version != envVersion || len(got.Variables) != 0 {
		t.Fatalf("expected empty record, got %+v", got)
	}
}

func TestLoadCorruptFileYieldsEmptyRecord(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(Dir(dir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(Dir(dir), "auth.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	got := LoadAuth(dir)
	if got.Version != authVersion || len(got.Rules) != 0 {
		t.Fatalf("expected empty record on corrupt file, got %+v", got)
	}
}

func TestLoadSchemaInvalidFileYieldsEmptyRecord(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(Dir(dir), 0755); err != nil {
		t.Fatal(err)
	}
	// valid JSON, but missing the required "endpoints"/"types" fields.
	if err := os.WriteFile(filepath.Join(Dir(dir), "contracts.json"), []byte(`{"version": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	got := LoadContracts(dir)
	if got.Version != contractsVersion || got.Endpoints != nil || got.Types != nil {
		t.Fatalf("expected empty record on schema-invalid file, got %+v", got)
	}
}

func TestSaveCreatesTruthpackDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := SaveEnv(dir, types.EnvRecord{Version: 1, Variables: []types.EnvVariable{
		{Name: "DATABASE_URL", Type: "string", Required: true},
	}}); err != nil {
		t.Fatalf("SaveEnv: %v", err)
	}
	if _, err := os.Stat(filepath.Join(Dir(dir), "env.json")); err != nil {
		t.Fatalf("expected env.json to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(Dir(dir), "env.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err = %v", err)
	}
}
