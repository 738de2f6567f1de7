package pipeline_test

import (
	"context"
	"testing"

	"github.com/dshills/diagramgen/pkg/pipeline"
)

func TestNewGeneratorImplementsInterface(t *testing.T) {
	var _ pipeline.Generator = (*pipeline.DefaultGenerator)(nil)
}

func newTestConfig(t *testing.T) *pipeline.Config {
	t.Helper()
	cfg := pipeline.DefaultConfig()
	cfg.Seed = 42
	cfg.OutputDir = t.TempDir()
	// Keep tests hermetic: only the always-available local adapter runs,
	// every other tool degrades to ToolUnavailable by design (see
	// nlpenrich.StubAdapter).
	cfg.EnabledTools = []string{"openie"}
	return cfg
}

func TestGenerate_EmptyInput(t *testing.T) {
	gen := pipeline.NewGenerator(newTestConfig(t))
	result, err := gen.Generate(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error for empty problem text")
	}
	if result == nil {
		t.Fatal("expected a non-nil result even on input error")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected Errors to record the input failure")
	}
}

func TestGenerate_WhitespaceOnlyInput(t *testing.T) {
	gen := pipeline.NewGenerator(newTestConfig(t))
	_, err := gen.Generate(context.Background(), "   \n\t  ")
	if err == nil {
		t.Fatal("expected an error for whitespace-only problem text")
	}
}

func TestGenerate_SeriesCircuitProducesSVG(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Domain = "electronics"
	gen := pipeline.NewGenerator(cfg)

	text := "A 10 ohm resistor R1 is connected to a 5 ohm resistor R2. " +
		"R1 connects to a 9V battery."

	result, err := gen.Generate(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scene == nil {
		t.Fatal("expected a built scene")
	}
	if len(result.SVG) == 0 {
		t.Fatal("expected non-empty SVG output")
	}
	if result.PropertyGraph == nil || len(result.PropertyGraph.Nodes) == 0 {
		t.Fatal("expected a non-empty property graph")
	}
	if result.DiagramPlan == nil {
		t.Fatal("expected a diagram plan")
	}
	if result.Metadata.RequestID == "" {
		t.Fatal("expected a request ID to be assigned")
	}
	if result.Metadata.LastCompletedPhase != "refine" {
		t.Fatalf("expected pipeline to reach the refine phase, got %q", result.Metadata.LastCompletedPhase)
	}
}

func TestGenerate_AllOptionalToolsUnavailableStillCompletes(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.EnabledTools = []string{"stanza", "scibert"} // every configured tool is a stub
	gen := pipeline.NewGenerator(cfg)

	result, err := gen.Generate(context.Background(), "A block sits on an incline.")
	if err != nil {
		t.Fatalf("expected the pipeline to complete despite all tools failing, got error: %v", err)
	}
	if !result.Metadata.DegradedMode {
		t.Fatal("expected degraded mode when every NLP tool is unavailable")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warnings recorded for unavailable tools")
	}
	if len(result.SVG) == 0 {
		t.Fatal("expected a minimal diagram even with an empty property graph")
	}
}

func TestGenerate_RefinementDisabledStillRenders(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.EnableRefinement = false
	gen := pipeline.NewGenerator(cfg)

	result, err := gen.Generate(context.Background(), "Light passes through a converging lens.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.SVG) == 0 {
		t.Fatal("expected SVG output when refinement is disabled")
	}
	if result.Validation != nil {
		t.Fatal("expected no refinement Validation result when refinement is disabled")
	}
}

func TestGenerate_ContextCancelledBeforeStart(t *testing.T) {
	gen := pipeline.NewGenerator(newTestConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, "A resistor is connected to a capacitor.")
	if err == nil {
		t.Fatal("expected an error when the context is already cancelled")
	}
}

func TestGenerate_OntologyValidationRunsByDefault(t *testing.T) {
	cfg := newTestConfig(t)
	gen := pipeline.NewGenerator(cfg)

	result, err := gen.Generate(context.Background(), "Two masses hang from a pulley connected by a rope.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OntologyValidation == nil {
		t.Fatal("expected an ontology validation report when EnableOntologyValidation is true")
	}
}
