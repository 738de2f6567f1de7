package primitives

import (
	"context"
	"testing"
)

func TestSemanticSearch_ExactDomainAndKeyword(t *testing.T) {
	results, err := SemanticSearch(context.Background(), "", "resistor with 10 ohms", "electronics", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 || results[0].Type != "resistor" {
		t.Fatalf("expected resistor to rank first, got %+v", results)
	}
}

func TestSemanticSearch_FallsBackAcrossDomains(t *testing.T) {
	results, err := SemanticSearch(context.Background(), "", "a ramp for the block to slide down", "mechanics", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, r := range results[:minInt(2, len(results))] {
		if r.Type == "incline" || r.Type == "block" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected incline or block near the top, got %+v", results)
	}
}

func TestSemanticSearch_LimitRespected(t *testing.T) {
	results, err := SemanticSearch(context.Background(), "", "component", "", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
