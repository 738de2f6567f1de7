// Package propgraph implements the property graph that C1's NLP enrichment
// and C2's extraction stage build up together: a typed, provenance-carrying
// graph of entities, quantities, constraints, events, and relations drawn
// from a problem statement.
package propgraph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// PropertyGraph is the complete extracted-knowledge container for one
// generation request.
type PropertyGraph struct {
	Nodes     map[string]*Node `json:"nodes"`
	Edges     map[string]*Edge `json:"edges"`
	Adjacency map[string][]string `json:"-"`

	// labelIndex maps a NormalizedLabel to the ID of the node that owns it,
	// supporting Upsert's merge-on-duplicate-label semantics.
	labelIndex map[string]string
}

// New creates an empty PropertyGraph.
func New() *PropertyGraph {
	return &PropertyGraph{
		Nodes:      make(map[string]*Node),
		Edges:      make(map[string]*Edge),
		Adjacency:  make(map[string][]string),
		labelIndex: make(map[string]string),
	}
}

// Upsert inserts a node, or merges it into an existing node with the same
// normalized label. The first insertion under a label fixes that node's
// Type and Label; later insertions only append to Sources and fill in
// Properties keys that were previously unset. Returns the ID of the node
// that now holds this information (which may differ from n.ID on merge).
func (g *PropertyGraph) Upsert(n *Node) (string, error) {
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("propgraph: upsert: %w", err)
	}

	key := NormalizedLabel(n.Label)
	if existingID, ok := g.labelIndex[key]; ok {
		existing := g.Nodes[existingID]
		for _, s := range n.Sources {
			existing.Sources = appendUnique(existing.Sources, s)
		}
		if n.Provenance.SourceText != "" {
			existing.Sources = appendUnique(existing.Sources, n.Provenance.SourceText)
		}
		if existing.Properties == nil {
			existing.Properties = make(map[string]interface{})
		}
		for k, v := range n.Properties {
			if _, set := existing.Properties[k]; !set {
				existing.Properties[k] = v
			}
		}
		if n.Provenance.Confidence > existing.Provenance.Confidence {
			existing.Provenance.Confidence = n.Provenance.Confidence
		}
		return existingID, nil
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, exists := g.Nodes[n.ID]; exists {
		return "", fmt.Errorf("propgraph: node with ID %s already exists", n.ID)
	}
	if n.Provenance.SourceText != "" {
		n.Sources = appendUnique(n.Sources, n.Provenance.SourceText)
	}

	g.Nodes[n.ID] = n
	g.labelIndex[key] = n.ID
	if g.Adjacency[n.ID] == nil {
		g.Adjacency[n.ID] = []string{}
	}
	return n.ID, nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// AddEdge validates and inserts an edge, updating the adjacency index.
// Edge IDs are not subject to merge semantics: a duplicate ID is an error.
func (g *PropertyGraph) AddEdge(e *Edge) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("propgraph: add edge: %w", err)
	}
	if _, ok := g.Nodes[e.From]; !ok {
		return fmt.Errorf("propgraph: edge %s: From node %s does not exist", e.ID, e.From)
	}
	if _, ok := g.Nodes[e.To]; !ok {
		return fmt.Errorf("propgraph: edge %s: To node %s does not exist", e.ID, e.To)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, exists := g.Edges[e.ID]; exists {
		return fmt.Errorf("propgraph: edge with ID %s already exists", e.ID)
	}
	g.Edges[e.ID] = e
	g.Adjacency[e.From] = append(g.Adjacency[e.From], e.To)
	return nil
}

// Reachable returns the set of node IDs reachable from 'from' by BFS over
// directed edges, including 'from' itself.
func (g *PropertyGraph) Reachable(from string) map[string]bool {
	reachable := make(map[string]bool)
	if _, ok := g.Nodes[from]; !ok {
		return reachable
	}
	queue := []string{from}
	reachable[from] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Adjacency[cur] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}
	return reachable
}

// HasCycle reports whether the directed graph contains a cycle, used by
// the planner's constraint generation (C4) to decide whether a closed-loop
// layout constraint applies.
func (g *PropertyGraph) HasCycle() bool {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var dfs func(string) bool
	dfs = func(node string) bool {
		visited[node] = true
		recStack[node] = true
		for _, next := range g.Adjacency[node] {
			if !visited[next] {
				if dfs(next) {
					return true
				}
			} else if recStack[next] {
				return true
			}
		}
		recStack[node] = false
		return false
	}

	for id := range g.Nodes {
		if !visited[id] {
			if dfs(id) {
				return true
			}
		}
	}
	return false
}

// NodesByType returns all nodes of the given type, in a stable order keyed
// by ID so downstream stages are deterministic.
func (g *PropertyGraph) NodesByType(t NodeType) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	sortNodesByID(out)
	return out
}

func sortNodesByID(nodes []*Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j-1].ID > nodes[j].ID; j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}

// ToJSON serializes the graph with indentation, per the pipeline's
// debug-artifact persistence convention.
func (g *PropertyGraph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// SaveJSON writes the graph to path with 0644 permissions.
func (g *PropertyGraph) SaveJSON(path string) error {
	data, err := g.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
