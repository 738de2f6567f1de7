package layout

import (
	"testing"

	"github.com/dshills/diagramgen/pkg/scene"
)

func TestApplyAlignment_SnapsTowardAnchorY(t *testing.T) {
	positions := map[string]scene.Position{
		"a": {X: 0, Y: 0},
		"b": {X: 10, Y: 100},
	}
	c := Constraint{Kind: "ALIGNMENT", Entities: []string{"a", "b"}, Priority: "CRITICAL"}
	applyConstraints(positions, []Constraint{c})
	if got := positions["b"].Y; got > 1 {
		t.Fatalf("expected b to snap close to a's y=0 at CRITICAL priority, got %v", got)
	}
}

func TestApplyBetween_CentersEntityOnFlankingMidpoint(t *testing.T) {
	positions := map[string]scene.Position{
		"plate_a": {X: 0, Y: 0},
		"plate_b": {X: 100, Y: 0},
		"fill":    {X: 500, Y: 500},
	}
	c := Constraint{Kind: "BETWEEN", Entities: []string{"plate_a", "plate_b", "fill"}, Priority: "CRITICAL"}
	for i := 0; i < 10; i++ {
		applyConstraints(positions, []Constraint{c})
	}
	if got := positions["fill"].X; got < 45 || got > 55 {
		t.Fatalf("expected fill to converge near midpoint x=50, got %v", got)
	}
}

func TestApplyBounds_ClampsOutOfRangePosition(t *testing.T) {
	positions := map[string]scene.Position{
		"a": {X: 1000, Y: -1000},
	}
	c := Constraint{Kind: "BOUNDS", Entities: []string{"a"},
		Parameters: map[string]interface{}{"min_x": 0.0, "max_x": 320.0, "min_y": 0.0, "max_y": 200.0}}
	applyConstraints(positions, []Constraint{c})
	p := positions["a"]
	if p.X != 320 || p.Y != 0 {
		t.Fatalf("expected clamp to (320, 0), got (%v, %v)", p.X, p.Y)
	}
}

func TestApplyNoOverlap_PushesCoincidentEntitiesApart(t *testing.T) {
	positions := map[string]scene.Position{
		"a": {X: 0, Y: 0},
		"b": {X: 0, Y: 0},
	}
	c := Constraint{Kind: "NO_OVERLAP", Entities: []string{"a", "b"}, Priority: "HIGH",
		Parameters: map[string]interface{}{"margin": 20.0}}
	for i := 0; i < 10; i++ {
		applyConstraints(positions, []Constraint{c})
	}
	dx := positions["b"].X - positions["a"].X
	dy := positions["b"].Y - positions["a"].Y
	dist := dx*dx + dy*dy
	if dist < 1 {
		t.Fatalf("expected coincident entities to separate, stayed at distance^2=%v", dist)
	}
}

func TestVerifyConstraints_FlagsOutOfBoundsObject(t *testing.T) {
	res := &Result{Positions: map[string]scene.Position{"a": {X: 1000, Y: 0}}}
	c := Constraint{Kind: "BOUNDS", Entities: []string{"a"},
		Parameters: map[string]interface{}{"min_x": 0.0, "max_x": 320.0}}
	issues := VerifyConstraints(res, []Constraint{c})
	if len(issues) != 1 || issues[0].Kind != "bounds" {
		t.Fatalf("expected a bounds violation, got %+v", issues)
	}
}

func TestVerifyConstraints_PassesWhenWithinBounds(t *testing.T) {
	res := &Result{Positions: map[string]scene.Position{"a": {X: 100, Y: 50}}}
	c := Constraint{Kind: "BOUNDS", Entities: []string{"a"},
		Parameters: map[string]interface{}{"min_x": 0.0, "max_x": 320.0, "min_y": 0.0, "max_y": 200.0}}
	issues := VerifyConstraints(res, []Constraint{c})
	if len(issues) != 0 {
		t.Fatalf("expected no bounds violation, got %+v", issues)
	}
}

func TestVerifyConstraints_FlagsMisalignedEntity(t *testing.T) {
	res := &Result{Positions: map[string]scene.Position{
		"a": {X: 0, Y: 0},
		"b": {X: 10, Y: 200},
	}}
	c := Constraint{Kind: "ALIGNMENT", Entities: []string{"a", "b"}}
	issues := VerifyConstraints(res, []Constraint{c})
	if len(issues) != 1 || issues[0].Kind != "alignment" {
		t.Fatalf("expected an alignment violation, got %+v", issues)
	}
}
