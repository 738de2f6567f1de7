package layout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dshills/diagramgen/pkg/rng"
	"github.com/dshills/diagramgen/pkg/scene"
)

// Solve is C8's strategy dispatch (C8.4): it tries the SMT solver first
// for constraints it specializes in, falls back to the heuristic solver on
// ErrUnsatisfiable or plain unavailability, and always symbolically
// verifies whichever result it returns.
func Solve(ctx context.Context, sc *scene.Scene, constraints []Constraint, smt SMTSolver, cfg *Config, r *rng.RNG) (*Result, []VerifyIssue, error) {
	if smt == nil {
		smt = NullSMTSolver{}
	}

	res, err := smt.Solve(ctx, sc, constraints)
	if err != nil {
		slog.Debug("layout: SMT solver declined or failed, falling back to heuristic",
			"solver", smt.Name(), "constraints", sortedConstraintKinds(constraints), "error", err)
		res, err = NewHeuristicSolver(cfg).Solve(sc, constraints, r)
		if err != nil {
			return nil, nil, fmt.Errorf("layout: heuristic fallback failed: %w", err)
		}
	}

	spacing := 0.0
	if cfg != nil {
		spacing = cfg.MinObjectSpacing
	}
	issues := SymbolicVerify(sc, res, spacing)
	issues = append(issues, VerifyConstraints(res, constraints)...)
	return res, issues, nil
}
