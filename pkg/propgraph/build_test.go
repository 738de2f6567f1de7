package propgraph

import (
	"testing"

	"github.com/dshills/diagramgen/pkg/nlpenrich"
)

func TestBuild_Nil(t *testing.T) {
	g, err := Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Fatalf("expected empty graph, got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestBuild_Empty(t *testing.T) {
	g, err := Build(&nlpenrich.Result{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 0 {
		t.Fatalf("expected empty graph, got %d nodes", len(g.Nodes))
	}
}

func TestBuild_OpenIE(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"openie": {
				Tool: "openie",
				Payload: map[string]interface{}{
					"triples": []map[string]string{
						{"subject": "block A", "predicate": "connects to", "object": "pulley"},
					},
				},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}
	aID := NormalizedLabel("block A")
	bID := NormalizedLabel("pulley")
	if _, ok := g.Nodes[aID]; !ok {
		t.Fatalf("expected node %q present", aID)
	}
	if _, ok := g.Nodes[bID]; !ok {
		t.Fatalf("expected node %q present", bID)
	}
}

func TestBuild_OpenIE_SkipsSelfLoop(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"openie": {
				Tool: "openie",
				Payload: map[string]interface{}{
					"triples": []map[string]string{
						{"subject": "block A", "predicate": "equals", "object": "Block A"},
					},
				},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 1 {
		t.Fatalf("expected nodes to merge into 1 via normalized label, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 0 {
		t.Fatalf("expected no self-loop edge, got %d", len(g.Edges))
	}
}

func TestBuild_Stanza_TypeMapping(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"stanza": {
				Tool: "stanza",
				Payload: map[string]interface{}{
					"entities": []map[string]interface{}{
						{"text": "5 kg mass", "type": "QUANTITY"},
						{"text": "gravity", "type": "FORCE"},
						{"text": "incline", "type": "OBJECT"},
					},
				},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes))
	}
	massID := NormalizedLabel("5 kg mass")
	if g.Nodes[massID].Type != NodeQuantity {
		t.Fatalf("expected QUANTITY to map to NodeQuantity, got %s", g.Nodes[massID].Type)
	}
	gravityID := NormalizedLabel("gravity")
	if g.Nodes[gravityID].Type != NodeEntity {
		t.Fatalf("expected FORCE to map to NodeEntity, got %s", g.Nodes[gravityID].Type)
	}
}

func TestBuild_ChemDataExtractor_Bonds(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"chemdataextractor": {
				Tool: "chemdataextractor",
				Payload: map[string]interface{}{
					"formulas": []interface{}{"H2O", "NaCl"},
					"bonds": []map[string]interface{}{
						{"from": "H2O", "to": "NaCl", "order": "single"},
					},
				},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestBuild_MathBERT_Variables(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"mathbert": {
				Tool:    "mathbert",
				Payload: map[string]interface{}{"variables": []interface{}{"x", "v0"}},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	xID := NormalizedLabel("x")
	if g.Nodes[xID].Type != NodeQuantity {
		t.Fatalf("expected variable to map to NodeQuantity, got %s", g.Nodes[xID].Type)
	}
	if g.Nodes[xID].Properties["type"] != "variable" {
		t.Fatalf("expected properties.type=variable, got %+v", g.Nodes[xID].Properties)
	}
}

func TestBuild_MultipleTools_MergeByLabel(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"openie": {
				Tool: "openie",
				Payload: map[string]interface{}{
					"triples": []map[string]string{
						{"subject": "pulley", "predicate": "connects to", "object": "rope"},
					},
				},
			},
			"scibert": {
				Tool: "scibert",
				Payload: map[string]interface{}{
					"entities": []map[string]interface{}{
						{"text": "pulley", "embedding": []float64{0.1, 0.2}},
					},
				},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected pulley to merge into a single node, got %d nodes", len(g.Nodes))
	}
	pulleyID := NormalizedLabel("pulley")
	node, ok := g.Nodes[pulleyID]
	if !ok {
		t.Fatalf("expected pulley node present")
	}
	if node.Properties["embedding"] == nil {
		t.Fatalf("expected scibert's embedding property to merge onto the openie-created node")
	}
}

func TestBuild_AMR_Relations(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"amr": {
				Tool: "amr",
				Payload: map[string]interface{}{
					"concepts": []interface{}{"push", "box"},
					"relations": []map[string]interface{}{
						{"from": "push", "to": "box", "label": "ARG1"},
					},
				},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestBuild_UnknownPayloadShape_Ignored(t *testing.T) {
	result := &nlpenrich.Result{
		Tools: map[string]nlpenrich.ToolPayload{
			"dygie": {
				Tool:    "dygie",
				Payload: map[string]interface{}{"entities": "not-a-list"},
			},
		},
	}
	g, err := Build(result)
	if err != nil {
		t.Fatalf("expected malformed payload to be tolerated, got error: %v", err)
	}
	if len(g.Nodes) != 0 {
		t.Fatalf("expected no nodes from unparseable payload, got %d", len(g.Nodes))
	}
}
