// Package ontology implements C3, the Ontology Validator: RL-style
// class-hierarchy and transitive-closure consistency checking over the
// property graph, using a Prolog engine for the inference itself.
//
// Validate is pure: it never mutates the graph passed to it. Callers
// decide whether to adopt the returned enriched copy.
package ontology

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ichiban/prolog"

	"github.com/dshills/diagramgen/pkg/propgraph"
)

// Issue describes one ontology consistency problem found in the graph.
type Issue struct {
	Kind    string // "missing_superclass", "inference_error"
	NodeID  string
	Detail  string
}

// Report is the result of validating a property graph against a domain
// ontology.
type Report struct {
	Consistent bool
	Issues     []Issue
	// Unavailable is true when no Prolog engine or class hierarchy could be
	// loaded; Validate still returns a (trivially consistent) Report rather
	// than an error, per the "optional dependency missing" contract.
	Unavailable bool
	Reason      string
}

// ClassHierarchy maps a domain ("electronics", "mechanics", ...) to a set
// of Prolog `is_a(Child, Parent).` facts describing its type taxonomy.
type ClassHierarchy map[string][]string

// DefaultHierarchies ships a small built-in taxonomy per domain. It is the
// only hierarchy source Validate reads; there is no file-based loader.
var DefaultHierarchies = ClassHierarchy{
	"electronics": {
		"is_a(resistor, component).",
		"is_a(capacitor, component).",
		"is_a(inductor, component).",
		"is_a(battery, source).",
		"is_a(source, component).",
		"is_a(led, component).",
	},
	"mechanics": {
		"is_a(block, rigid_body).",
		"is_a(sphere, rigid_body).",
		"is_a(incline, surface).",
	},
	"chemistry": {
		"is_a(reactant, substance).",
		"is_a(product, substance).",
	},
}

// Validate checks graph against the ontology for domain, returning a
// Report plus an enriched copy of graph whose nodes carry the inferred
// superclass chain in Properties["ontology_superclasses"]. g is never
// mutated.
func Validate(ctx context.Context, g *propgraph.PropertyGraph, domain string) (*Report, *propgraph.PropertyGraph, error) {
	facts, ok := DefaultHierarchies[strings.ToLower(domain)]
	if !ok || len(facts) == 0 {
		return &Report{Consistent: true, Unavailable: true, Reason: fmt.Sprintf("no class hierarchy registered for domain %q", domain)}, g, nil
	}

	interp := prolog.New(nil, nil)
	if err := interp.Exec(strings.Join(facts, "\n") + "\nsubclass_of(X,Y) :- is_a(X,Y).\nsubclass_of(X,Z) :- is_a(X,Y), subclass_of(Y,Z)."); err != nil {
		return &Report{Consistent: true, Unavailable: true, Reason: fmt.Sprintf("prolog engine load failed: %v", err)}, g, nil
	}

	enriched := cloneGraph(g)
	report := &Report{Consistent: true}

	for _, n := range sortedNodes(enriched) {
		entityType, _ := n.Properties["entity_type"].(string)
		if entityType == "" {
			continue
		}
		chain, err := superclasses(ctx, interp, entityType)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				Kind: "inference_error", NodeID: n.ID,
				Detail: fmt.Sprintf("superclass query failed for %q: %v", entityType, err),
			})
			continue
		}
		if len(chain) == 0 {
			report.Issues = append(report.Issues, Issue{
				Kind: "missing_superclass", NodeID: n.ID,
				Detail: fmt.Sprintf("entity type %q has no known superclass in domain %q", entityType, domain),
			})
			continue
		}
		if n.Properties == nil {
			n.Properties = make(map[string]interface{})
		}
		n.Properties["ontology_superclasses"] = chain
	}

	report.Consistent = len(report.Issues) == 0
	return report, enriched, nil
}

// superclasses queries subclass_of(EntityType, Parent), the transitive
// closure of the is_a facts, for every known parent,
// trying each registered class name as Parent since ichiban/prolog's
// solution iterator in this vendored usage pattern reports solution
// presence rather than bound variable values; we probe candidate parents
// explicitly instead of reading them back from the binding.
func superclasses(ctx context.Context, interp *prolog.Interpreter, entityType string) ([]string, error) {
	var chain []string
	for _, candidate := range candidateClasses() {
		query := fmt.Sprintf("subclass_of(%s, %s).", entityType, candidate)
		sols, err := interp.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		found := sols.Next()
		closeErr := sols.Close()
		if closeErr != nil {
			return nil, closeErr
		}
		if found {
			chain = append(chain, candidate)
		}
	}
	sort.Strings(chain)
	return chain, nil
}

func candidateClasses() []string {
	seen := make(map[string]bool)
	var out []string
	for _, facts := range DefaultHierarchies {
		for _, fact := range facts {
			// fact looks like "is_a(child, parent)."
			inner := strings.TrimSuffix(strings.TrimPrefix(fact, "is_a("), ").")
			parts := strings.SplitN(inner, ",", 2)
			if len(parts) != 2 {
				continue
			}
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if !seen[p] {
					seen[p] = true
					out = append(out, p)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func sortedNodes(g *propgraph.PropertyGraph) []*propgraph.Node {
	var out []*propgraph.Node
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneGraph(g *propgraph.PropertyGraph) *propgraph.PropertyGraph {
	clone := propgraph.New()
	for id, n := range g.Nodes {
		nCopy := *n
		if n.Properties != nil {
			nCopy.Properties = make(map[string]interface{}, len(n.Properties))
			for k, v := range n.Properties {
				nCopy.Properties[k] = v
			}
		}
		clone.Nodes[id] = &nCopy
	}
	for id, e := range g.Edges {
		eCopy := *e
		clone.Edges[id] = &eCopy
	}
	for id, adj := range g.Adjacency {
		clone.Adjacency[id] = append([]string(nil), adj...)
	}
	return clone
}
