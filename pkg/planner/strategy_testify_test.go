package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/diagramgen/pkg/propgraph"
)

func makeConstraints(n int) []LayoutConstraint {
	out := make([]LayoutConstraint, n)
	for i := range out {
		out[i] = LayoutConstraint{Type: "DISTANCE", Entities: []string{fmt.Sprintf("e%d", i)}}
	}
	return out
}

func TestSelectStrategy_Table(t *testing.T) {
	cases := []struct {
		name         string
		constraints  int
		complexity   float64
		wantStrategy Strategy
	}{
		{"low complexity stays direct", 0, 0.2, StrategyDirect},
		{"low complexity stays direct even with constraints", 5, 0.1, StrategyDirect},
		{"mid complexity with many constraints goes constraint-first", 3, 0.5, StrategyConstraintFirst},
		{"mid complexity with few constraints goes hierarchical", 1, 0.5, StrategyHierarchical},
		{"high complexity goes hierarchical", 0, 0.9, StrategyHierarchical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := selectStrategy(tc.complexity, makeConstraints(tc.constraints))
			assert.Equal(t, tc.wantStrategy, got, "strategy mismatch for %s", tc.name)
		})
	}
}

func TestPlanFromPropertyGraph_UnknownDomainStillPlans(t *testing.T) {
	g := propgraph.New()
	_, err := g.Upsert(&propgraph.Node{ID: "n1", Type: propgraph.NodeEntity, Label: "thing"})
	require.NoError(t, err)

	plan, err := PlanFromPropertyGraph(g, "generic", "A thing sits somewhere.", &TemporalContext{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, plan)
	assert.Equal(t, StrategyDirect, plan.Strategy)
}
