package planner

import (
	"testing"

	"github.com/dshills/diagramgen/pkg/propgraph"
)

func buildGraph(t *testing.T) *propgraph.PropertyGraph {
	t.Helper()
	g := propgraph.New()
	r1, err := g.Upsert(&propgraph.Node{ID: "r1", Type: propgraph.NodeEntity, Label: "R1"})
	if err != nil {
		t.Fatalf("upsert r1: %v", err)
	}
	r2, err := g.Upsert(&propgraph.Node{ID: "r2", Type: propgraph.NodeEntity, Label: "R2"})
	if err != nil {
		t.Fatalf("upsert r2: %v", err)
	}
	if err := g.AddEdge(&propgraph.Edge{ID: "e1", Type: propgraph.EdgeConnects, From: r1, To: r2}); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	return g
}

func TestPlanFromPropertyGraph_Basic(t *testing.T) {
	g := buildGraph(t)
	plan, err := PlanFromPropertyGraph(g, "electronics", "A resistor R1 is connected to a resistor R2.", &TemporalContext{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.DiagramType != "circuit" {
		t.Fatalf("expected circuit diagram type, got %s", plan.DiagramType)
	}
	if plan.Strategy != StrategyDirect {
		t.Fatalf("expected DIRECT strategy for a small graph, got %s", plan.Strategy)
	}
	if len(plan.Entities) != 2 {
		t.Fatalf("expected 2 plan entities, got %d", len(plan.Entities))
	}
	var sawNoOverlap, sawBounds bool
	for _, c := range plan.Constraints {
		switch c.Type {
		case "NO_OVERLAP":
			sawNoOverlap = true
		case "BOUNDS":
			sawBounds = true
		}
	}
	if !sawNoOverlap || !sawBounds {
		t.Fatalf("expected NO_OVERLAP and BOUNDS constraints, got %+v", plan.Constraints)
	}
	if len(plan.EntityOrder) != 2 {
		t.Fatalf("expected 2 ordered entities, got %d", len(plan.EntityOrder))
	}
}

func TestSelectStrategy_ConstraintFirstWhenManyConstraints(t *testing.T) {
	constraints := []LayoutConstraint{
		{Type: "DISTANCE", Entities: []string{"a", "b"}},
		{Type: "NO_OVERLAP", Entities: []string{"a", "b", "c"}},
		{Type: "BOUNDS", Entities: []string{"a", "b", "c"}},
	}
	strategy := selectStrategy(0.5, constraints)
	if strategy != StrategyConstraintFirst {
		t.Fatalf("expected CONSTRAINT_FIRST, got %s", strategy)
	}
}

func TestTemporalAnalyzer_DetectsBeforeAfter(t *testing.T) {
	analyzer := TemporalAnalyzer{}
	ctx, err := analyzer.Analyze("Before the collision, the ball moves at 5 m/s. After the collision it stops.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctx.HasMultipleStates {
		t.Fatal("expected multiple states to be detected")
	}
}

func TestTemporalAnalyzer_NoTemporalLanguage(t *testing.T) {
	analyzer := TemporalAnalyzer{}
	ctx, err := analyzer.Analyze("A resistor is connected to a battery.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.HasMultipleStates {
		t.Fatal("expected no temporal states detected")
	}
}
