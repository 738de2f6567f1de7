package propgraph

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// TestProperty_UpsertConvergesOnNormalizedLabel mirrors the teacher's
// TestProperty_GraphConnectivity shape: draw a random batch of upserts
// whose labels only differ by case and whitespace, in a random order, and
// check the graph still converges to exactly one node per distinct
// normalized label regardless of draw order. This is the node-merge half
// of the "idempotence of graph build" invariant that propgraph.Build's
// tool-by-tool construction depends on.
func TestProperty_UpsertConvergesOnNormalizedLabel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		labelCount := rapid.IntRange(1, 6).Draw(t, "labelCount")
		baseLabels := make([]string, labelCount)
		for i := range baseLabels {
			baseLabels[i] = fmt.Sprintf("entity %d", i)
		}

		variantCount := rapid.IntRange(labelCount, labelCount*4).Draw(t, "variantCount")
		g := New()
		seenConfidence := make(map[string]float64, labelCount)
		picked := make(map[string]bool, labelCount)

		for i := 0; i < variantCount; i++ {
			base := baseLabels[rapid.IntRange(0, labelCount-1).Draw(t, fmt.Sprintf("pick_%d", i))]
			label := varyWhitespaceAndCase(t, base, i)
			confidence := rapid.Float64Range(0, 1).Draw(t, fmt.Sprintf("confidence_%d", i))

			_, err := g.Upsert(&Node{
				ID:         fmt.Sprintf("n%d", i),
				Type:       NodeEntity,
				Label:      label,
				Provenance: Provenance{Confidence: confidence},
			})
			if err != nil {
				t.Fatalf("upsert %q: %v", label, err)
			}
			key := NormalizedLabel(base)
			picked[key] = true
			if confidence > seenConfidence[key] {
				seenConfidence[key] = confidence
			}
		}

		if len(g.Nodes) != len(picked) {
			t.Fatalf("expected %d distinct nodes, got %d", len(picked), len(g.Nodes))
		}
		for key := range picked {
			id, ok := g.labelIndex[key]
			if !ok {
				t.Fatalf("missing label index entry for %q", key)
			}
			node := g.Nodes[id]
			if node.Provenance.Confidence != seenConfidence[key] {
				t.Fatalf("label %q: expected max confidence %v, got %v", key, seenConfidence[key], node.Provenance.Confidence)
			}
		}
	})
}

func varyWhitespaceAndCase(t *rapid.T, base string, salt int) string {
	variant := base
	if salt%2 == 1 {
		variant = "  " + variant + "  "
	}
	if salt%3 == 0 {
		variant = toUpperASCII(variant)
	}
	return variant
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
