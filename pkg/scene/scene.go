// Package scene implements C6, the Scene Builder: it turns a property
// graph plus a C4 plan into a flat Scene of positionable objects and
// connectors that C8 (layout) and C9 (render) then consume.
package scene

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/diagramgen/pkg/planner"
	"github.com/dshills/diagramgen/pkg/propgraph"
)

// RenderLayer orders how objects are drawn; lower values draw first (and so
// sit visually behind higher ones).
type RenderLayer int

const (
	LayerBackground RenderLayer = iota
	LayerFill
	LayerShapes
	LayerLines
	LayerArrows
	LayerAnnotations
	LayerLabels
	LayerForeground
)

// LayerConnector and LayerPrimitive are the two layers domain interpreters
// actually assign: connectors draw as LINES, primitives as SHAPES. Kept as
// named aliases so interpreter code reads by role, not by raw layer name.
const (
	LayerConnector  = LayerLines
	LayerPrimitive  = LayerShapes
	LayerLabel      = LayerLabels
	LayerAnnotation = LayerAnnotations
)

// Position is a 2D point. It is always record-shaped at rest inside a
// Scene; the safe accessor PositionOf exists for callers that may receive
// a position from an external payload (e.g. a VLM critique) shaped as a
// map instead.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PositionOf safely extracts a Position from either a Position value or a
// map[string]interface{} with "x"/"y" keys, per the spec's note that
// position data arriving from external collaborators may be mapping-shaped
// rather than record-shaped.
func PositionOf(v interface{}) (Position, bool) {
	switch p := v.(type) {
	case Position:
		return p, true
	case map[string]interface{}:
		x, xok := toFloat(p["x"])
		y, yok := toFloat(p["y"])
		if xok && yok {
			return Position{X: x, Y: y}, true
		}
	}
	return Position{}, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Object is one drawable entity in the scene.
type Object struct {
	ID            string                 `json:"id"`
	PrimitiveType string                 `json:"primitive_type"`
	Label         string                 `json:"label,omitempty"`
	Position      Position               `json:"position"`
	Width         float64                `json:"width"`
	Height        float64                `json:"height"`
	Layer         RenderLayer            `json:"layer"`
	Properties    map[string]interface{} `json:"properties,omitempty"`
	SourceNodeID  string                 `json:"source_node_id,omitempty"`
}

// Connector is a drawn line/edge between two objects.
type Connector struct {
	ID    string      `json:"id"`
	From  string      `json:"from"`
	To    string      `json:"to"`
	Label string      `json:"label,omitempty"`
	Layer RenderLayer `json:"layer"`
}

// Constraint is a placement constraint attached at the scene level, either
// inherited from a graph NodeConstraint/EdgeConstrains relation or
// synthesized by a scene-building strategy (HIERARCHICAL's subproblem
// bounds, CONSTRAINT_FIRST's text-extracted spatial relations). C8 consumes
// these the same way it consumes planner.LayoutConstraint.
type Constraint struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	ObjectIDs  []string               `json:"object_ids"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Scene is C6's output.
type Scene struct {
	Domain      string       `json:"domain"`
	Objects     []*Object    `json:"objects"`
	Connectors  []*Connector `json:"connectors"`
	Constraints []Constraint `json:"constraints,omitempty"`
}

// Validate checks that every connector references existing objects,
// mirroring the teacher's content-validation idiom of checking foreign
// references after assembly rather than at every append call site.
func (s *Scene) Validate() error {
	ids := make(map[string]bool, len(s.Objects))
	for _, o := range s.Objects {
		ids[o.ID] = true
	}
	for _, c := range s.Connectors {
		if !ids[c.From] {
			return fmt.Errorf("scene: connector %s references unknown object %s", c.ID, c.From)
		}
		if !ids[c.To] {
			return fmt.Errorf("scene: connector %s references unknown object %s", c.ID, c.To)
		}
	}
	return nil
}

// DomainInterpreter turns graph nodes/edges into scene objects/connectors
// for one specific domain (electronics, mechanics, optics, chemistry,
// geometry).
type DomainInterpreter interface {
	Domain() string
	Interpret(g *propgraph.PropertyGraph, plan *planner.Plan) (*Scene, error)
}

var interpreters = map[string]DomainInterpreter{}

// RegisterInterpreter adds a domain interpreter to the registry.
func RegisterInterpreter(d DomainInterpreter) { interpreters[d.Domain()] = d }

func init() {
	RegisterInterpreter(ElectronicsInterpreter{})
	RegisterInterpreter(MechanicsInterpreter{})
	RegisterInterpreter(OpticsInterpreter{})
	RegisterInterpreter(ChemistryInterpreter{})
	RegisterInterpreter(GeometryInterpreter{})
}

// Build dispatches to the strategy named in plan.Strategy, per spec §4.6.
// DIRECT interprets the whole graph in one pass. HIERARCHICAL decomposes
// the graph into connected subproblems, interprets each independently, and
// composes them left-to-right with a fixed gutter. CONSTRAINT_FIRST
// interprets the graph, surfaces every graph-level constraint as a visible
// object plus a scene-level Constraint, and augments those with spatial
// relations extracted directly from the problem text.
func Build(g *propgraph.PropertyGraph, domain string, plan *planner.Plan) (*Scene, error) {
	interp, ok := interpreters[domain]
	if !ok {
		interp = GenericInterpreter{}
	}
	if plan == nil {
		plan = &planner.Plan{Strategy: planner.StrategyDirect}
	}

	var s *Scene
	var err error
	switch plan.Strategy {
	case planner.StrategyHierarchical:
		s, err = buildHierarchical(g, interp, plan)
	case planner.StrategyConstraintFirst:
		s, err = buildConstraintFirst(g, interp, plan)
	default:
		s, err = interp.Interpret(g, plan)
	}
	if err != nil {
		return nil, fmt.Errorf("scene: interpret domain %s: %w", domain, err)
	}
	s.Domain = domain

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// subproblemGutter and subproblemWidth bound the canvas region C8's BOUNDS
// constraint reserves for each subproblem. Subscenes are never offset by
// mutating Object.Position directly: C8's heuristic solver re-initializes
// every position from its own RNG regardless of what C6 set, so the only
// way a subproblem's layout actually survives into the rendered diagram is
// as a constraint the layout engine itself enforces.
const (
	subproblemGutter = 40.0
	subproblemWidth  = 320.0
)

// buildHierarchical implements spec §4.6's _identify_subproblems -> per-
// subproblem interpret -> _compose_scenes pipeline.
func buildHierarchical(g *propgraph.PropertyGraph, interp DomainInterpreter, plan *planner.Plan) (*Scene, error) {
	subgraphs := identifySubproblems(g)
	if len(subgraphs) <= 1 {
		return interp.Interpret(g, plan)
	}

	combined := &Scene{}
	cursorX := 0.0
	for i, sub := range subgraphs {
		subScene, err := interp.Interpret(sub, plan)
		if err != nil {
			return nil, fmt.Errorf("hierarchical subproblem %d: %w", i, err)
		}
		combined.Objects = append(combined.Objects, subScene.Objects...)
		combined.Connectors = append(combined.Connectors, subScene.Connectors...)
		combined.Constraints = append(combined.Constraints, subScene.Constraints...)

		ids := make([]string, 0, len(subScene.Objects))
		for _, o := range subScene.Objects {
			ids = append(ids, o.ID)
		}
		if len(ids) > 0 {
			combined.Constraints = append(combined.Constraints, Constraint{
				ID:        fmt.Sprintf("subproblem_bounds_%d", i),
				Type:      "BOUNDS",
				ObjectIDs: ids,
				Parameters: map[string]interface{}{
					"min_x": cursorX,
					"max_x": cursorX + subproblemWidth,
				},
			})
		}
		cursorX += subproblemWidth + subproblemGutter
	}
	return combined, nil
}

// identifySubproblems splits the graph into its connected components
// (treating every edge as undirected, since a subproblem is a cluster of
// mutually-related entities regardless of relation direction), each
// returned as its own induced subgraph, in a stable order keyed by the
// smallest node ID in each component.
func identifySubproblems(g *propgraph.PropertyGraph) []*propgraph.PropertyGraph {
	undirected := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		undirected[e.From] = append(undirected[e.From], e.To)
		undirected[e.To] = append(undirected[e.To], e.From)
	}

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := make(map[string]bool, len(ids))
	var subgraphs []*propgraph.PropertyGraph
	for _, id := range ids {
		if visited[id] {
			continue
		}
		var comp []string
		queue := []string{id}
		visited[id] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, next := range undirected[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		subgraphs = append(subgraphs, inducedSubgraph(g, comp))
	}
	return subgraphs
}

// inducedSubgraph builds a new PropertyGraph containing exactly nodeIDs and
// every edge whose endpoints are both in that set. It populates the
// PropertyGraph's exported maps directly rather than going through
// Upsert/AddEdge: those carry merge-by-label and foreign-key validation
// semantics meant for first-time graph construction, not for re-wrapping an
// already-validated node/edge set.
func inducedSubgraph(g *propgraph.PropertyGraph, nodeIDs []string) *propgraph.PropertyGraph {
	keep := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		keep[id] = true
	}
	sub := propgraph.New()
	for _, id := range nodeIDs {
		sub.Nodes[id] = g.Nodes[id]
		sub.Adjacency[id] = nil
	}
	for id, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			sub.Edges[id] = e
			sub.Adjacency[e.From] = append(sub.Adjacency[e.From], e.To)
		}
	}
	return sub
}

// buildConstraintFirst implements spec §4.6's CONSTRAINT_FIRST strategy:
// interpret the graph, surface every graph-level constraint node as a
// visible marker object plus a scene-level Constraint tied to whatever it
// Constrains, then run regex-based spatial extraction over the raw problem
// text and fold those relations in as additional Constraints.
func buildConstraintFirst(g *propgraph.PropertyGraph, interp DomainInterpreter, plan *planner.Plan) (*Scene, error) {
	s, err := interp.Interpret(g, plan)
	if err != nil {
		return nil, err
	}

	for _, n := range g.NodesByType(propgraph.NodeConstraint) {
		s.Objects = append(s.Objects, &Object{
			ID:            n.ID,
			PrimitiveType: "constraint_marker",
			Label:         n.Label,
			Layer:         LayerAnnotation,
			Properties:    n.Properties,
			SourceNodeID:  n.ID,
		})
	}
	augmentWithConstraints(s, g)

	var text string
	if plan != nil {
		text = plan.OriginalRequest
	}
	s.Constraints = append(s.Constraints, extractSpatialConstraints(text, s)...)

	reorderConstraintFirst(s, g)
	return s, nil
}

// augmentWithConstraints turns every graph EdgeConstrains relation into a
// scene-level Constraint so C8 can act on it directly instead of needing to
// re-derive it from the graph.
func augmentWithConstraints(s *Scene, g *propgraph.PropertyGraph) {
	ids := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := g.Edges[id]
		if e.Type != propgraph.EdgeConstrains {
			continue
		}
		s.Constraints = append(s.Constraints, Constraint{
			ID:         "constraint_" + e.ID,
			Type:       "DISTANCE",
			ObjectIDs:  []string{e.From, e.To},
			Parameters: e.Properties,
		})
	}
}

var spatialPattern = regexp.MustCompile(`(?i)\b([A-Za-z0-9_]+)\s+(is\s+)?(above|below|left of|right of)\s+([A-Za-z0-9_]+)(?:\s+by\s+([0-9.]+))?`)

// extractSpatialConstraints implements spec §4.6's _extract_constraints:
// a regex pass over the raw problem text for spatial relations between two
// labeled entities, resolved against the scene's own objects by
// fuzzy (case-insensitive, substring) label match.
func extractSpatialConstraints(text string, s *Scene) []Constraint {
	if text == "" {
		return nil
	}
	var out []Constraint
	for i, m := range spatialPattern.FindAllStringSubmatch(text, -1) {
		subjectLabel, relation, objectLabel, distStr := m[1], strings.ToLower(m[3]), m[4], m[5]
		subject := findObjectByLabel(s, subjectLabel)
		object := findObjectByLabel(s, objectLabel)
		if subject == nil || object == nil {
			continue
		}
		params := map[string]interface{}{"relation": relation}
		if distStr != "" {
			if dist, err := strconv.ParseFloat(distStr, 64); err == nil {
				params["distance"] = dist
			}
		}
		constraintType := "ALIGNMENT"
		if relation == "left of" || relation == "right of" {
			constraintType = "DISTANCE"
		}
		out = append(out, Constraint{
			ID:         fmt.Sprintf("text_constraint_%d", i),
			Type:       constraintType,
			ObjectIDs:  []string{subject.ID, object.ID},
			Parameters: params,
		})
	}
	return out
}

func findObjectByLabel(s *Scene, label string) *Object {
	lower := strings.ToLower(label)
	for _, o := range s.Objects {
		if strings.Contains(strings.ToLower(o.Label), lower) || strings.Contains(strings.ToLower(o.ID), lower) {
			return o
		}
	}
	return nil
}

func reorderConstraintFirst(s *Scene, g *propgraph.PropertyGraph) {
	constraintIDs := make(map[string]bool)
	for _, n := range g.NodesByType(propgraph.NodeConstraint) {
		constraintIDs[n.ID] = true
	}
	var first, rest []*Object
	for _, o := range s.Objects {
		if constraintIDs[o.SourceNodeID] {
			first = append(first, o)
		} else {
			rest = append(rest, o)
		}
	}
	s.Objects = append(first, rest...)
}
