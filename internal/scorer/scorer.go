// Package scorer is component L: the Ship Scorer. Grounded on
// internal/report/render.go's summary-footer aggregation style — counts
// and ratios folded into one printable verdict line, just scaled here
// from a findings-severity tally into a weighted category score.
package scorer

import (
	"fmt"
	"math"

	"github.com/vibecheck/vibecheck/internal/types"
)

// Weights are the per-category contributions to the aggregate Ship
// Score. spec.md §4.L requires they sum to 1.0.
type Weights struct {
	Routes    float64
	Env       float64
	Auth      float64
	Contracts float64
}

// DefaultWeights are spec.md §4.L's defaults.
var DefaultWeights = Weights{Routes: 0.30, Env: 0.20, Auth: 0.30, Contracts: 0.20}

const weightSumTolerance = 1e-9

// NewWeights validates that routes+env+auth+contracts sum to 1.0 before
// returning a usable Weights value (spec.md §9 Q3: the reference
// implementation hard-codes a balanced vector but never enforces it —
// here construction fails fast instead).
func NewWeights(routes, env, auth, contracts float64) (Weights, error) {
	w := Weights{Routes: routes, Env: env, Auth: auth, Contracts: contracts}
	sum := routes + env + auth + contracts
	if math.Abs(sum-1.0) > weightSumTolerance {
		return Weights{}, fmt.Errorf("scorer: category weights must sum to 1.0, got %.6f", sum)
	}
	return w, nil
}

// Inputs is the presence data the scorer checks per category: whether
// the truthpack actually recorded anything for that category. Absence
// isn't itself a defect, but it means the Drift Detector and Claim
// Verifier have nothing to check drift/claims against, which the
// diagnostics list surfaces as a warning.
type Inputs struct {
	RouteCount    int
	EnvCount      int
	AuthRuleCount int
	ContractCount int
}

// InputsFromTruthpack builds Inputs from the four truthpack records.
func InputsFromTruthpack(routes types.RoutesRecord, env types.EnvRecord, auth types.AuthRecord, contracts types.ContractsRecord) Inputs {
	return Inputs{
		RouteCount:    len(routes.Routes),
		EnvCount:      len(env.Variables),
		AuthRuleCount: len(auth.Rules),
		ContractCount: len(contracts.Endpoints) + len(contracts.Types),
	}
}

// Subscores holds the per-category 0-or-100 presence subscores.
type Subscores struct {
	Routes    float64
	Env       float64
	Auth      float64
	Contracts float64
}

// Result is the complete Ship Score verdict.
type Result struct {
	Score       int
	Verdict     types.ShipVerdict
	Subscores   Subscores
	Diagnostics []string
}

const (
	shipThreshold = 80
	warnThreshold = 60
)

func presence(count int) float64 {
	if count > 0 {
		return 100
	}
	return 0
}

// Score aggregates Inputs into a weighted 0-100 Ship Score and verdict,
// per spec.md §4.L's presence-check rule: a category subscore is 100 if
// any signal for it exists, else 0, weighted by w into the aggregate.
func Score(in Inputs, w Weights) Result {
	sub := Subscores{
		Routes:    presence(in.RouteCount),
		Env:       presence(in.EnvCount),
		Auth:      presence(in.AuthRuleCount),
		Contracts: presence(in.ContractCount),
	}

	aggregate := sub.Routes*w.Routes + sub.Env*w.Env + sub.Auth*w.Auth + sub.Contracts*w.Contracts
	score := int(math.Round(aggregate))

	var verdict types.ShipVerdict
	switch {
	case score >= shipThreshold:
		verdict = types.VerdictShip
	case score >= warnThreshold:
		verdict = types.VerdictWarn
	default:
		verdict = types.VerdictBlock
	}

	var diagnostics []string
	if in.RouteCount == 0 {
		diagnostics = append(diagnostics, "no routes recorded in the truthpack — route drift cannot be detected")
	}
	if in.EnvCount == 0 {
		diagnostics = append(diagnostics, "no environment variables recorded in the truthpack — env drift cannot be detected")
	}
	if in.AuthRuleCount == 0 {
		diagnostics = append(diagnostics, "no auth rules recorded in the truthpack — authorization drift cannot be detected")
	}
	if in.ContractCount == 0 {
		diagnostics = append(diagnostics, "no API contracts recorded in the truthpack — type drift cannot be detected")
	}

	return Result{
		Score:       score,
		Verdict:     verdict,
		Subscores:   sub,
		Diagnostics: diagnostics,
	}
}
