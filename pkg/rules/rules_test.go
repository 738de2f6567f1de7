package rules

import (
	"testing"

	"github.com/dshills/diagramgen/pkg/scene"
)

func TestCheck_ElectronicsLoopDetection(t *testing.T) {
	s := &scene.Scene{
		Domain: "electronics",
		Objects: []*scene.Object{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Connectors: []*scene.Connector{
			{ID: "e1", From: "a", To: "b"},
			{ID: "e2", From: "b", To: "c"},
			{ID: "e3", From: "c", To: "a"},
		},
	}
	results := Check(s, DefaultTolerance)
	if len(results) != 1 || !results[0].Passed {
		t.Fatalf("expected kirchhoff_loop to pass for a closed loop, got %+v", results)
	}
}

func TestCheck_ElectronicsNoLoop(t *testing.T) {
	s := &scene.Scene{
		Domain:  "electronics",
		Objects: []*scene.Object{{ID: "a"}, {ID: "b"}},
		Connectors: []*scene.Connector{
			{ID: "e1", From: "a", To: "b"},
		},
	}
	results := Check(s, DefaultTolerance)
	if results[0].Passed {
		t.Fatal("expected kirchhoff_loop to fail for an open chain")
	}
}

func TestCheck_LensEquationHolds(t *testing.T) {
	s := &scene.Scene{
		Domain: "optics",
		Objects: []*scene.Object{
			{ID: "l1", PrimitiveType: "lens", Properties: map[string]interface{}{
				"focal_length": 10.0, "object_distance": 30.0, "image_distance": 15.0,
			}},
		},
	}
	results := Check(s, DefaultTolerance)
	if !results[0].Passed {
		t.Fatalf("expected lens equation to hold: %+v", results[0])
	}
}

func TestCheck_LensEquationViolated(t *testing.T) {
	s := &scene.Scene{
		Domain: "optics",
		Objects: []*scene.Object{
			{ID: "l1", PrimitiveType: "lens", Properties: map[string]interface{}{
				"focal_length": 10.0, "object_distance": 30.0, "image_distance": 100.0,
			}},
		},
	}
	results := Check(s, DefaultTolerance)
	if results[0].Passed {
		t.Fatal("expected lens equation violation to be flagged")
	}
}

func TestCheck_AtomBalance(t *testing.T) {
	s := &scene.Scene{
		Domain: "chemistry",
		Objects: []*scene.Object{
			{ID: "r1", Properties: map[string]interface{}{"atom_count": 4.0, "role": "reactant"}},
			{ID: "p1", Properties: map[string]interface{}{"atom_count": 4.0, "role": "product"}},
		},
	}
	results := Check(s, DefaultTolerance)
	if !results[0].Passed {
		t.Fatalf("expected balanced atom counts to pass: %+v", results[0])
	}
}

func TestCheck_NewtonBalanceBalancedForcesPass(t *testing.T) {
	s := &scene.Scene{
		Domain: "mechanics",
		Objects: []*scene.Object{
			{ID: "f1", PrimitiveType: "force_arrow", Properties: map[string]interface{}{"magnitude": 10.0, "direction_deg": 0.0}},
			{ID: "f2", PrimitiveType: "force_arrow", Properties: map[string]interface{}{"magnitude": 10.0, "direction_deg": 180.0}},
		},
	}
	results := Check(s, DefaultTolerance)
	if !results[0].Passed {
		t.Fatalf("expected opposing equal forces to balance: %+v", results[0])
	}
}

func TestCheck_NewtonBalanceInclineNetForceWarnsNotFails(t *testing.T) {
	// Scenario 3 numbers: a 10kg mass on a 30deg incline with friction
	// coefficient 0.3. Weight, normal, and friction do not cancel along
	// the slope; that residual is the point of the exercise, so the rule
	// must flag it as a soft warning rather than a hard failure.
	s := &scene.Scene{
		Domain: "mechanics",
		Objects: []*scene.Object{
			{ID: "weight", PrimitiveType: "force_arrow", Properties: map[string]interface{}{"magnitude": 98.0, "direction_deg": 270.0}},
			{ID: "normal", PrimitiveType: "force_arrow", Properties: map[string]interface{}{"magnitude": 84.9, "direction_deg": 60.0}},
			{ID: "friction", PrimitiveType: "force_arrow", Properties: map[string]interface{}{"magnitude": 25.5, "direction_deg": 150.0}},
		},
	}
	results := Check(s, DefaultTolerance)
	if results[0].Passed {
		t.Fatalf("expected net force along the incline to be flagged: %+v", results[0])
	}
	if results[0].Severity != "soft" {
		t.Fatalf("expected newton_balance violation to be soft, got %q", results[0].Severity)
	}
}

func TestCheck_NewtonBalanceNoForcesPasses(t *testing.T) {
	s := &scene.Scene{
		Domain:  "mechanics",
		Objects: []*scene.Object{{ID: "m1", PrimitiveType: "mass"}},
	}
	results := Check(s, DefaultTolerance)
	if !results[0].Passed {
		t.Fatalf("expected no-force scene to pass vacuously: %+v", results[0])
	}
}

func TestCheck_UnknownDomainReturnsNoResults(t *testing.T) {
	s := &scene.Scene{Domain: "astrology"}
	if results := Check(s, DefaultTolerance); results != nil {
		t.Fatalf("expected no rule results for unknown domain, got %+v", results)
	}
}
