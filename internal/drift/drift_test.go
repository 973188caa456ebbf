package drift

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vibecheck/vibecheck/internal/types"
)

func writeTestFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectRouteDriftFindsAddedAndRemoved(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "app/users/route.ts", "export async function GET(req) {\n  return Response.json({})\n}\n")

	items := detectRouteDrift(context.Background(), dir, []string{"app/users/route.ts"}, 0, types.RoutesRecord{
		Routes: []types.Route{{Method: "POST", Path: "/orders", Handler: "legacy"}},
	})

	var sawAdded, sawRemoved bool
	for _, it := range items {
		if it.ChangeType == types.DriftAdded && it.Identifier == "GET /users" {
			sawAdded = true
		}
		if it.ChangeType == types.DriftRemoved && it.Identifier == "POST /orders" {
			sawRemoved = true
		}
	}
	if !sawAdded {
		t.Errorf("expected GET /users to be reported added, got %+v", items)
	}
	if !sawRemoved {
		t.Errorf("expected POST /orders to be reported removed, got %+v", items)
	}
}

func TestDetectEnvDriftFlagsRequiredUndeclaredAsCritical(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src/db.ts", "const url = process.env.DATABASE_URL\n")

	items := detectEnvDrift(context.Background(), dir, []string{"src/db.ts"}, 0, types.EnvRecord{})

	if len(items) != 1 {
		t.Fatalf("expected exactly one drift item, got %+v", items)
	}
	if items[0].Severity != types.SevCritical || items[0].Identifier != "DATABASE_URL" {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestDetectEnvDriftIgnoresVariableWithFallback(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src/config.ts", "const port = process.env.PORT || '3000'\n")

	items := detectEnvDrift(context.Background(), dir, []string{"src/config.ts"}, 0, types.EnvRecord{})

	if len(items) != 1 || items[0].Severity != types.SevHigh {
		t.Fatalf("expected one high-severity (optional) drift item, got %+v", items)
	}
}

func TestDetectAuthDriftFlagsProtectionRemovalAsCritical(t *testing.T) {
	dir := t.TempDir()

	items := detectAuthDrift(context.Background(), dir, nil, 0, types.AuthRecord{
		Rules: []types.AuthRule{{Path: "/admin", RequiresAuth: true, Roles: []string{"admin"}}},
	})

	if len(items) != 1 || items[0].ChangeType != types.DriftRemoved || items[0].Severity != types.SevCritical {
		t.Fatalf("expected a critical removal for /admin, got %+v", items)
	}
}

func TestDetectAuthDriftFlagsRoleShrinkageAsCritical(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src/routes/admin.ts", "router.get('/admin', requireRole(['admin']), handler)\n")

	items := detectAuthDrift(context.Background(), dir, []string{"src/routes/admin.ts"}, 0, types.AuthRecord{
		Rules: []types.AuthRule{{Path: "/admin", RequiresAuth: true, Roles: []string{"admin", "superadmin"}}},
	})

	if len(items) != 1 || items[0].Severity != types.SevCritical {
		t.Fatalf("expected a critical role-shrinkage item, got %+v", items)
	}
}

func TestDetectTypeDriftFlagsFieldRemovalAsHigh(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "src/types.ts", "interface User {\n  id: string\n}\n")

	items := detectTypeDrift(context.Background(), dir, []string{"src/types.ts"}, 0, types.ContractsRecord{
		Types: []types.ContractType{{Name: "User", Schema: "id\nemail"}},
	})

	if len(items) != 1 || items[0].Severity != types.SevHigh || items[0].Identifier != "User.email" {
		t.Fatalf("expected a high-severity removal for User.email, got %+v", items)
	}
}

func TestRunMergesAllSubDetectors(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "app/users/route.ts", "export async function GET(req) {}\n")

	sum := Run(context.Background(), Config{Root: dir, Files: []string{"app/users/route.ts"}})

	if sum.TotalDrift == 0 {
		t.Fatalf("expected at least one drift item, got %+v", sum)
	}
	if sum.Added == 0 {
		t.Errorf("expected at least one addition, got %+v", sum)
	}
}
