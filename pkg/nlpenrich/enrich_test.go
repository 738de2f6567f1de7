package nlpenrich

import (
	"context"
	"testing"
)

func TestEnrich_MixesSuccessAndFailure(t *testing.T) {
	res, err := Enrich(context.Background(), "The resistor is connected to the battery.",
		[]string{"openie", "stanza", "unregistered_tool"})
	if err != nil {
		t.Fatalf("Enrich should not return an error for partial failures: %v", err)
	}
	if _, ok := res.Tools["openie"]; !ok {
		t.Fatal("expected openie to succeed")
	}
	if _, ok := res.Failures["stanza"]; !ok {
		t.Fatal("expected stanza to be recorded as unavailable")
	}
	if _, ok := res.Failures["unregistered_tool"]; !ok {
		t.Fatal("expected unregistered tool to be recorded as a failure")
	}
}

func TestOpenIEAdapter_ExtractsTriple(t *testing.T) {
	a := OpenIEAdapter{}
	out, err := a.Extract(context.Background(), "The resistor is connected to the battery.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	triples, ok := out["triples"].([]map[string]string)
	if !ok || len(triples) == 0 {
		t.Fatalf("expected at least one triple, got %v", out)
	}
}

func TestList_IsSorted(t *testing.T) {
	names := List()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("expected sorted adapter names, got %v", names)
		}
	}
}
