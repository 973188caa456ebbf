package scorer

import (
	"testing"

	"github.com/vibecheck/vibecheck/internal/types"
)

func TestNewWeightsRejectsUnbalancedVector(t *testing.T) {
	if _, err := NewWeights(0.3, 0.3, 0.3, 0.3); err == nil {
		t.Fatal("expected error for weights summing to 1.2")
	}
}

func TestNewWeightsAcceptsBalancedVector(t *testing.T) {
	w, err := NewWeights(0.3, 0.2, 0.3, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != DefaultWeights {
		t.Fatalf("expected default weights, got %+v", w)
	}
}

func TestScoreAllPresentYieldsShip(t *testing.T) {
	in := Inputs{RouteCount: 3, EnvCount: 2, AuthRuleCount: 1, ContractCount: 4}
	r := Score(in, DefaultWeights)
	if r.Score != 100 {
		t.Fatalf("expected score 100, got %d", r.Score)
	}
	if r.Verdict != types.VerdictShip {
		t.Fatalf("expected SHIP verdict, got %s", r.Verdict)
	}
	if len(r.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", r.Diagnostics)
	}
}

func TestScoreAllAbsentYieldsBlockWithDiagnostics(t *testing.T) {
	r := Score(Inputs{}, DefaultWeights)
	if r.Score != 0 {
		t.Fatalf("expected score 0, got %d", r.Score)
	}
	if r.Verdict != types.VerdictBlock {
		t.Fatalf("expected BLOCK verdict, got %s", r.Verdict)
	}
	if len(r.Diagnostics) != 4 {
		t.Fatalf("expected 4 diagnostics, got %d", len(r.Diagnostics))
	}
}

func TestScoreWarnBoundary(t *testing.T) {
	// routes (0.30) + auth (0.30) present = 60 -> WARN boundary.
	in := Inputs{RouteCount: 1, AuthRuleCount: 1}
	r := Score(in, DefaultWeights)
	if r.Score != 60 {
		t.Fatalf("expected score 60, got %d", r.Score)
	}
	if r.Verdict != types.VerdictWarn {
		t.Fatalf("expected WARN verdict, got %s", r.Verdict)
	}
}

func TestScoreJustBelowWarnYieldsBlock(t *testing.T) {
	// env (0.20) + contracts (0.20) present = 40 -> BLOCK.
	in := Inputs{EnvCount: 1, ContractCount: 1}
	r := Score(in, DefaultWeights)
	if r.Score != 40 {
		t.Fatalf("expected score 40, got %d", r.Score)
	}
	if r.Verdict != types.VerdictBlock {
		t.Fatalf("expected BLOCK verdict, got %s", r.Verdict)
	}
}

func TestInputsFromTruthpackCountsEachRecord(t *testing.T) {
	in := InputsFromTruthpack(
		types.RoutesRecord{Routes: []types.Route{{}, {}}},
		types.EnvRecord{Variables: []types.EnvVariable{{}}},
		types.AuthRecord{Rules: []types.AuthRule{{}}},
		types.ContractsRecord{Endpoints: []types.ContractEndpoint{{}}, Types: []types.ContractType{{}}},
	)
	if in.RouteCount != 2 || in.EnvCount != 1 || in.AuthRuleCount != 1 || in.ContractCount != 2 {
		t.Fatalf("unexpected counts: %+v", in)
	}
}
