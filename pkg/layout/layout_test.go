package layout

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/dshills/diagramgen/pkg/rng"
	"github.com/dshills/diagramgen/pkg/scene"
)

func testScene() *scene.Scene {
	return &scene.Scene{
		Objects: []*scene.Object{
			{ID: "a", Width: 20, Height: 20},
			{ID: "b", Width: 20, Height: 20},
			{ID: "c", Width: 20, Height: 20},
		},
		Connectors: []*scene.Connector{
			{ID: "e1", From: "a", To: "b"},
			{ID: "e2", From: "b", To: "c"},
		},
	}
}

func stageRNG(stage string) *rng.RNG {
	hash := sha256.Sum256([]byte("test-config"))
	return rng.NewRNG(42, stage, hash[:])
}

func TestHeuristicSolver_Deterministic(t *testing.T) {
	solver := NewHeuristicSolver(DefaultConfig())
	sc := testScene()

	res1, err := solver.Solve(sc, nil, stageRNG("layout_heuristic"))
	if err != nil {
		t.Fatalf("solve 1: %v", err)
	}
	res2, err := solver.Solve(sc, nil, stageRNG("layout_heuristic"))
	if err != nil {
		t.Fatalf("solve 2: %v", err)
	}
	for id, p1 := range res1.Positions {
		p2 := res2.Positions[id]
		if p1 != p2 {
			t.Fatalf("expected deterministic positions for %s, got %+v vs %+v", id, p1, p2)
		}
	}
}

func TestHeuristicSolver_NoOverlaps(t *testing.T) {
	solver := NewHeuristicSolver(DefaultConfig())
	sc := testScene()
	res, err := solver.Solve(sc, nil, stageRNG("layout_heuristic"))
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	issues := SymbolicVerify(sc, res, DefaultConfig().MinObjectSpacing)
	if len(issues) != 0 {
		t.Fatalf("expected no overlap issues, got %+v", issues)
	}
}

func TestNativeSMTSolver_GridPlacement(t *testing.T) {
	solver := NewNativeSMTSolver(10, 40)
	sc := testScene()
	res, err := solver.Solve(context.Background(), sc, []Constraint{{Kind: "NO_OVERLAP", Entities: []string{"a", "b", "c"}}})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(res.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(res.Positions))
	}
}

func TestSolve_FallsBackWhenSMTUnavailable(t *testing.T) {
	sc := testScene()
	res, issues, err := Solve(context.Background(), sc, nil, NullSMTSolver{}, DefaultConfig(), stageRNG("layout_heuristic"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Algorithm != "heuristic" {
		t.Fatalf("expected fallback to heuristic, got %s", res.Algorithm)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no verify issues, got %+v", issues)
	}
}

func TestNativeSMTSolver_RejectsImpossibleDistanceConstraint(t *testing.T) {
	solver := NewNativeSMTSolver(10, 40)
	sc := testScene()
	_, err := solver.Solve(context.Background(), sc, []Constraint{
		{Kind: "DISTANCE", Entities: []string{"a", "b"}, Parameters: map[string]interface{}{"min": 500.0, "max": 10.0}},
	})
	var unsat *ErrUnsatisfiable
	if err == nil {
		t.Fatal("expected an unsatisfiable error")
	}
	if !errors.As(err, &unsat) {
		t.Fatalf("expected ErrUnsatisfiable, got %T: %v", err, err)
	}
}

func TestHeuristicSolver_SatisfiesBoundsConstraint(t *testing.T) {
	solver := NewHeuristicSolver(DefaultConfig())
	sc := testScene()
	constraints := []Constraint{
		{Kind: "BOUNDS", Entities: []string{"a", "b", "c"}, Priority: "CRITICAL",
			Parameters: map[string]interface{}{"min_x": 0.0, "max_x": 100.0, "min_y": 0.0, "max_y": 100.0}},
	}
	res, err := solver.Solve(sc, constraints, stageRNG("layout_heuristic"))
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	// Initial placement spreads objects up to InitialSpread=150 away from the
	// origin; a generous margin around the [0,100] box tolerates the small
	// displacement resolveOverlaps may add after the constraint clamp runs.
	for id, p := range res.Positions {
		if p.X < -50 || p.X > 150 || p.Y < -50 || p.Y > 150 {
			t.Fatalf("expected %s roughly within the BOUNDS region after constraint satisfaction, got %+v", id, p)
		}
	}
}

func TestSolve_UsesNativeSMTWhenApplicable(t *testing.T) {
	sc := testScene()
	res, _, err := Solve(context.Background(), sc, []Constraint{{Kind: "NO_OVERLAP", Entities: []string{"a", "b", "c"}}},
		NewNativeSMTSolver(10, 40), DefaultConfig(), stageRNG("layout_heuristic"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Algorithm != "native" {
		t.Fatalf("expected native SMT solver to be used, got %s", res.Algorithm)
	}
}
