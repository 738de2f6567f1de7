package refine

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/dshills/diagramgen/pkg/llmclient"
	"github.com/dshills/diagramgen/pkg/render"
	"github.com/dshills/diagramgen/pkg/rng"
	"github.com/dshills/diagramgen/pkg/scene"
)

func overlappingScene() *scene.Scene {
	return &scene.Scene{
		Domain: "mechanics",
		Objects: []*scene.Object{
			{ID: "a", PrimitiveType: "block", Label: "A", Position: scene.Position{X: 10, Y: 10}, Width: 40, Height: 40},
			{ID: "b", PrimitiveType: "block", Label: "B", Position: scene.Position{X: 20, Y: 10}, Width: 40, Height: 40},
		},
	}
}

func testRNG() *rng.RNG {
	hash := sha256.Sum256([]byte("refine-test"))
	return rng.NewRNG(7, "refine", hash[:])
}

func TestValidateStructural_DetectsOverlap(t *testing.T) {
	sc := overlappingScene()
	report := ValidateStructural(sc, 12, 1200, 900, nil, nil, DefaultPenalties())
	if report.OverallScore >= 100 {
		t.Fatalf("expected penalty for overlapping objects, got score %v", report.OverallScore)
	}
	found := false
	for _, issue := range report.Issues {
		if issue.Kind == IssueOverlap {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an overlap issue, got %+v", report.Issues)
	}
}

func TestValidateStructural_DetectsOutOfBounds(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{
		{ID: "x", Position: scene.Position{X: -10, Y: 0}, Width: 20, Height: 20},
	}}
	report := ValidateStructural(sc, 12, 1200, 900, nil, nil, DefaultPenalties())
	found := false
	for _, issue := range report.Issues {
		if issue.Kind == IssueOutOfBounds {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an out-of-bounds issue, got %+v", report.Issues)
	}
}

func TestDefaultFixer_ResolvesOverlap(t *testing.T) {
	sc := overlappingScene()
	fixer := DefaultFixer{}
	report := ValidateStructural(sc, 12, 1200, 900, nil, nil, DefaultPenalties())
	fixed := fixer.Fix(sc, report.Issues, 1200, 900, testRNG())
	if fixed == 0 {
		t.Fatal("expected at least one issue fixed")
	}
	after := ValidateStructural(sc, 12, 1200, 900, nil, nil, DefaultPenalties())
	for _, issue := range after.Issues {
		if issue.Kind == IssueOverlap {
			t.Fatalf("expected overlap resolved after fix, still have: %+v", issue)
		}
	}
}

func TestRun_TerminatesAndProducesSVG(t *testing.T) {
	sc := overlappingScene()
	opts := DefaultOptions()
	result, err := Run(context.Background(), sc, "two blocks", nil, nil, nil, testRNG(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Iterations == 0 || result.Iterations > MaxIterations {
		t.Fatalf("expected iterations in [1, %d], got %d", MaxIterations, result.Iterations)
	}
	if len(result.SVG) == 0 {
		t.Fatal("expected non-empty SVG output")
	}
}

func TestRun_StopsEarlyWhenAlreadyGood(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{
		{ID: "a", PrimitiveType: "block", Position: scene.Position{X: 10, Y: 10}, Width: 20, Height: 20},
	}}
	opts := DefaultOptions()
	result, err := Run(context.Background(), sc, "one block", nil, nil, nil, testRNG(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FinalState != StateGoodEnough {
		t.Fatalf("expected immediate GOOD_ENOUGH state, got %s", result.FinalState)
	}
	if result.Iterations != 1 {
		t.Fatalf("expected a single validation pass, got %d", result.Iterations)
	}
}

func TestRun_IncorporatesVLMConfidence(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{
		{ID: "a", Position: scene.Position{X: 10, Y: 10}, Width: 20, Height: 20},
	}}
	stub := &llmclient.StubVLM{}
	opts := DefaultOptions()
	result, err := Run(context.Background(), sc, "one block", nil, nil, stub, testRNG(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.VLM == nil {
		t.Fatal("expected a VLM result from the stub")
	}
}

func TestRender_UsedByLoop(t *testing.T) {
	// sanity check that render.Render accepts the Options the loop threads through
	_, err := render.Render(&scene.Scene{}, render.DefaultOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
}
