// Package planner implements C4, the Diagram Planner: five deterministic
// stages that turn a validated property graph into a Plan describing which
// entities and relations are worth drawing, what kind of diagram to build,
// how complex it is, which scene-building strategy and solver to use, and
// what layout constraints to generate.
package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/diagramgen/pkg/primitives"
	"github.com/dshills/diagramgen/pkg/propgraph"
)

// Strategy selects C6's scene-building approach.
type Strategy string

const (
	StrategyDirect          Strategy = "DIRECT"
	StrategyHierarchical    Strategy = "HIERARCHICAL"
	StrategyConstraintFirst Strategy = "CONSTRAINT_FIRST"
)

// Priority orders how hard C8 tries to satisfy a LayoutConstraint; higher
// priorities get a larger corrective weight in both the heuristic and the
// native SMT solver's relaxation loop.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityNormal   Priority = "NORMAL"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Position is a bare 2D point, kept local to this package rather than
// reused from pkg/scene: scene already imports planner, so the reverse
// import would cycle.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlanEntity is one drawable thing C6 should render, produced by stage 1's
// entity-extraction pass over the property graph.
type PlanEntity struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Label         string                 `json:"label"`
	Properties    map[string]interface{} `json:"properties,omitempty"`
	PrimitiveHint string                 `json:"primitive_hint,omitempty"`
}

// PlanRelation is one visual relationship between two kept entities,
// produced by stage 2's relation-mapping pass.
type PlanRelation struct {
	SourceID   string                 `json:"source_id"`
	TargetID   string                 `json:"target_id"`
	Type       string                 `json:"type"`
	Label      string                 `json:"label,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// LayoutConstraint is a placement constraint C8 should try to satisfy,
// produced by stage 3's constraint-generation policy.
type LayoutConstraint struct {
	Type       string                 `json:"type"`
	Entities   []string               `json:"entities"`
	Priority   Priority               `json:"priority"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// LayoutHints is stage 4's output: which solver the complexity of this plan
// calls for.
type LayoutHints struct {
	Solver    string               `json:"solver"` // "heuristic", "smt", "symbolic"
	Positions map[string]Position  `json:"positions,omitempty"`
	CanvasW   float64              `json:"canvas_w,omitempty"`
	CanvasH   float64              `json:"canvas_h,omitempty"`
}

// StyleHint is one (fill, stroke) pair assigned to an entity by stage 5's
// (type, domain) lookup table.
type StyleHint struct {
	Fill   string `json:"fill,omitempty"`
	Stroke string `json:"stroke,omitempty"`
}

// Plan is C4's output, per spec §3.4.
type Plan struct {
	OriginalRequest string                `json:"original_request"`
	Domain          string                `json:"domain,omitempty"`
	DiagramType     string                `json:"diagram_type"`
	ComplexityScore float64               `json:"complexity_score"`
	Strategy        Strategy              `json:"strategy"`
	Entities        []PlanEntity          `json:"entities"`
	Relations       []PlanRelation        `json:"relations"`
	Constraints     []LayoutConstraint    `json:"constraints"`
	LayoutHints     LayoutHints           `json:"layout_hints"`
	StyleHints      map[string]StyleHint  `json:"style_hints,omitempty"`
	EntityOrder     []string              `json:"entity_order"`
	Temporal        *TemporalContext      `json:"temporal,omitempty"`
}

// RelationPolicyRule is one row of the constraint-generation policy table:
// When is an expr-lang boolean expression evaluated against one relation's
// context (relType, domain, hasCycle); when true, a LayoutConstraint of
// ConstraintType/Priority is emitted for that relation's two entities.
type RelationPolicyRule struct {
	When           string
	ConstraintType string
	Priority       Priority
}

// DefaultRelationPolicy is the built-in per-relation constraint-generation
// table from spec §4.4 stage 3. A deployment can override this per domain.
var DefaultRelationPolicy = []RelationPolicyRule{
	{When: `relType == "CONNECTED_TO"`, ConstraintType: "DISTANCE", Priority: PriorityHigh},
	{When: `relType == "SERIES"`, ConstraintType: "ALIGNMENT", Priority: PriorityHigh},
	{When: `relType == "ACTS_ON"`, ConstraintType: "DISTANCE", Priority: PriorityNormal},
}

// PlanFromPropertyGraph runs the five planning stages in sequence.
func PlanFromPropertyGraph(g *propgraph.PropertyGraph, domain, problemText string, temporal *TemporalContext, policy []RelationPolicyRule) (*Plan, error) {
	if policy == nil {
		policy = DefaultRelationPolicy
	}

	diagramType := classifyDiagramType(g, domain)
	entities := extractEntities(g, domain)
	relations := mapRelations(g, entities, domain, problemText)
	constraints, err := generateConstraints(entities, relations, domain, g.HasCycle(), policy)
	if err != nil {
		return nil, fmt.Errorf("planner: generate constraints: %w", err)
	}
	complexity := scoreComplexity(entities, relations, constraints)
	strategy := selectStrategy(complexity, constraints)
	order := orderEntities(g)

	return &Plan{
		OriginalRequest: problemText,
		Domain:          domain,
		DiagramType:     diagramType,
		ComplexityScore: complexity,
		Strategy:        strategy,
		Entities:        entities,
		Relations:       relations,
		Constraints:     constraints,
		LayoutHints:     LayoutHints{Solver: chooseSolver(len(entities))},
		StyleHints:      assignStyles(entities, domain),
		EntityOrder:     order,
		Temporal:        temporal,
	}, nil
}

// Stage 1: classify the overall diagram type from the domain. Falls back to
// a generic "diagram" label.
func classifyDiagramType(g *propgraph.PropertyGraph, domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	switch domain {
	case "electronics":
		return "circuit"
	case "mechanics":
		return "free_body_diagram"
	case "optics":
		return "ray_diagram"
	case "chemistry":
		return "reaction_diagram"
	case "geometry":
		return "geometric_figure"
	default:
		return "diagram"
	}
}

// Stage 1: entity extraction. A node is kept when it is not a pure abstract
// concept (Properties["subtype"] == "concept", C2's tag for nodes like
// "velocity" used only to describe another entity), per spec §4.4 stage 1's
// exclusion of concept/relation/action-typed nodes from the drawable set.
// Domain-vocabulary and unit-property matches don't gate inclusion — every
// concrete entity/quantity/event C2 extracted is drawable by default — but
// they do feed primitiveHint's resolution quality and stage 2's implicit
// relationship inference.
func extractEntities(g *propgraph.PropertyGraph, domain string) []PlanEntity {
	var out []PlanEntity
	for _, t := range []propgraph.NodeType{propgraph.NodeEntity, propgraph.NodeQuantity, propgraph.NodeEvent} {
		for _, n := range g.NodesByType(t) {
			if !isDrawable(n) {
				continue
			}
			out = append(out, PlanEntity{
				ID:            n.ID,
				Type:          n.Type.String(),
				Label:         n.Label,
				Properties:    n.Properties,
				PrimitiveHint: primitiveHint(n, domain),
			})
		}
	}
	return out
}

func isDrawable(n *propgraph.Node) bool {
	subtype, _ := n.Properties["subtype"].(string)
	return subtype != "concept"
}

var domainVocabulary = map[string][]string{
	"electronics": {"resistor", "capacitor", "battery", "inductor", "led", "wire", "circuit"},
	"mechanics":   {"mass", "block", "incline", "force", "pulley", "spring", "friction"},
	"optics":      {"lens", "mirror", "ray", "object", "image"},
	"chemistry":   {"atom", "molecule", "bond", "reactant", "product"},
	"geometry":    {"point", "line", "angle", "triangle", "circle"},
}

func matchesDomainVocabulary(label, domain string) bool {
	lower := strings.ToLower(label)
	for _, word := range domainVocabulary[strings.ToLower(domain)] {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func primitiveHint(n *propgraph.Node, domain string) string {
	if et, ok := n.Properties["entity_type"].(string); ok && et != "" {
		return et
	}
	if matchesDomainVocabulary(n.Label, domain) {
		return strings.ToLower(n.Label)
	}
	hits, err := primitives.SemanticSearch(context.Background(), "in_memory", n.Label, domain, 1)
	if err != nil || len(hits) == 0 {
		return ""
	}
	return hits[0].Type
}

// Stage 2: relation mapping. Edges between two kept entities are translated
// to a visual relation type via a fixed table; when the raw text names an
// explicit circuit topology ("in series"/"in parallel"), CONNECTED_TO edges
// are refined into SERIES/PARALLEL, the implicit-relationship inference
// spec §4.4.1 calls for.
func mapRelations(g *propgraph.PropertyGraph, entities []PlanEntity, domain, text string) []PlanRelation {
	kept := make(map[string]bool, len(entities))
	for _, e := range entities {
		kept[e.ID] = true
	}
	topology := inferCircuitTopology(domain, text)

	ids := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []PlanRelation
	for _, id := range ids {
		e := g.Edges[id]
		if !kept[e.From] || !kept[e.To] {
			continue
		}
		relType, ok := visualRelationType(e.Type)
		if !ok {
			continue
		}
		if relType == "CONNECTED_TO" && topology != "" {
			relType = strings.ToUpper(topology)
		}
		out = append(out, PlanRelation{SourceID: e.From, TargetID: e.To, Type: relType, Label: e.Type.String(), Properties: e.Properties})
	}
	return out
}

func visualRelationType(t propgraph.EdgeType) (string, bool) {
	switch t {
	case propgraph.EdgeConnects, propgraph.EdgeContains, propgraph.EdgePrecedes:
		return "CONNECTED_TO", true
	case propgraph.EdgeActsOn:
		return "ACTS_ON", true
	default:
		return "", false
	}
}

func inferCircuitTopology(domain, text string) string {
	if strings.ToLower(domain) != "electronics" {
		return ""
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "parallel"):
		return "parallel"
	case strings.Contains(lower, "series"):
		return "series"
	default:
		return ""
	}
}

// Stage 3: constraint generation. Every relation is checked against the
// per-relation policy table; on top of that, an electronics plan whose
// graph has a cycle gets a CRITICAL CLOSED_LOOP constraint (an open loop
// with a power source is the one topology violation spec §4.7 treats as
// more than a warning), every plan with more than one entity gets a
// NO_OVERLAP constraint over all of them, and every non-empty plan gets a
// BOUNDS constraint keeping everything on the canvas.
func generateConstraints(entities []PlanEntity, relations []PlanRelation, domain string, hasCycle bool, policy []RelationPolicyRule) ([]LayoutConstraint, error) {
	var out []LayoutConstraint
	for _, rel := range relations {
		env := map[string]interface{}{"relType": rel.Type, "domain": strings.ToLower(domain), "hasCycle": hasCycle}
		for _, rule := range policy {
			matched, err := propgraph.EvalConstraintExpr(rule.When, env)
			if err != nil {
				return nil, fmt.Errorf("policy rule %q: %w", rule.When, err)
			}
			if matched {
				out = append(out, LayoutConstraint{
					Type:       rule.ConstraintType,
					Entities:   []string{rel.SourceID, rel.TargetID},
					Priority:   rule.Priority,
					Parameters: defaultParametersFor(rule.ConstraintType),
				})
			}
		}
	}

	ids := entityIDs(entities)
	if strings.ToLower(domain) == "electronics" && hasCycle && len(ids) > 0 {
		out = append(out, LayoutConstraint{Type: "CLOSED_LOOP", Entities: ids, Priority: PriorityCritical})
	}
	if len(ids) > 1 {
		out = append(out, LayoutConstraint{
			Type: "NO_OVERLAP", Entities: ids, Priority: PriorityNormal,
			Parameters: map[string]interface{}{"margin": 12.0},
		})
	}
	if len(ids) > 0 {
		out = append(out, LayoutConstraint{Type: "BOUNDS", Entities: ids, Priority: PriorityLow})
	}
	return out, nil
}

func defaultParametersFor(constraintType string) map[string]interface{} {
	switch constraintType {
	case "DISTANCE":
		return map[string]interface{}{"min": 40.0, "max": 180.0}
	case "ALIGNMENT":
		return map[string]interface{}{"axis": "horizontal"}
	default:
		return nil
	}
}

func entityIDs(entities []PlanEntity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}
	return ids
}

// Stage 4: complexity score and strategy selection. The raw weighted sum
// from entity/relation/constraint counts (plus a bump for any CRITICAL
// constraint) is normalized into [0, 1) so it stays meaningful for
// arbitrarily large graphs, per spec §3.4's complexity_score range.
func scoreComplexity(entities []PlanEntity, relations []PlanRelation, constraints []LayoutConstraint) float64 {
	criticalBoost := 0.0
	for _, c := range constraints {
		if c.Priority == PriorityCritical {
			criticalBoost = 2.0
			break
		}
	}
	raw := float64(len(entities))*1.0 + float64(len(relations))*0.5 + float64(len(constraints))*0.3 + criticalBoost
	return raw / (raw + 10.0)
}

// selectStrategy applies spec §4.4's strategy bands: below 0.4 is simple
// enough for a direct build; 0.4-0.7 goes to CONSTRAINT_FIRST only when the
// plan is constraint-dominant (three or more layout constraints);
// everything else needs HIERARCHICAL's
// subproblem decomposition.
func selectStrategy(complexity float64, constraints []LayoutConstraint) Strategy {
	constraintDominant := len(constraints) >= 3
	switch {
	case complexity < 0.4:
		return StrategyDirect
	case complexity < 0.7 && constraintDominant:
		return StrategyConstraintFirst
	default:
		return StrategyHierarchical
	}
}

// Stage 4 (solver choice): heuristic for small plans, native SMT for
// mid-sized ones, symbolic-only (no search) for plans too large for either
// search-based solver to finish quickly, per spec §4.4 stage 4.
func chooseSolver(entityCount int) string {
	switch {
	case entityCount <= 5:
		return "heuristic"
	case entityCount <= 15:
		return "smt"
	default:
		return "symbolic"
	}
}

// Stage 5: style assignment by a (primitive hint, domain) lookup table.
var domainStylePalette = map[string]map[string]StyleHint{
	"electronics": {
		"capacitor_plate": {Fill: "#cfd8dc", Stroke: "#37474f"},
		"battery":         {Fill: "#fff9c4", Stroke: "#f9a825"},
	},
	"mechanics": {
		"mass":        {Fill: "#e3f2fd", Stroke: "#1565c0"},
		"force_arrow": {Fill: "#ffebee", Stroke: "#c62828"},
	},
	"optics": {
		"lens": {Fill: "#f3e5f5", Stroke: "#6a1b9a"},
	},
}

func assignStyles(entities []PlanEntity, domain string) map[string]StyleHint {
	palette := domainStylePalette[strings.ToLower(domain)]
	if palette == nil {
		return nil
	}
	out := make(map[string]StyleHint)
	for _, e := range entities {
		if style, ok := palette[e.PrimitiveHint]; ok {
			out[e.ID] = style
		}
	}
	return out
}

// orderEntities orders nodes for deterministic downstream construction:
// entities first, then events, then relations, then constraints, each
// group sorted by ID. Quantity nodes are not included.
func orderEntities(g *propgraph.PropertyGraph) []string {
	var order []string
	for _, t := range []propgraph.NodeType{propgraph.NodeEntity, propgraph.NodeEvent, propgraph.NodeRelation, propgraph.NodeConstraint} {
		for _, n := range g.NodesByType(t) {
			order = append(order, n.ID)
		}
	}
	return order
}
