package refine

import (
	"context"

	"github.com/dshills/diagramgen/pkg/llmclient"
	"github.com/dshills/diagramgen/pkg/render"
	"github.com/dshills/diagramgen/pkg/rng"
	"github.com/dshills/diagramgen/pkg/rules"
	"github.com/dshills/diagramgen/pkg/scene"
)

// MaxIterations bounds the validate/fix/re-render cycle.
const MaxIterations = 3

// GoodEnoughThreshold is the structural score the loop stops at.
const GoodEnoughThreshold = 80.0

// State names the refinement loop's state machine position. The state the
// loop ends in is reported as Result.FinalState, which the pipeline copies
// into its result metadata.
type State string

const (
	StateValidating  State = "VALIDATING"
	StateFixing      State = "FIXING"
	StateRerendering State = "RE_RENDERING"
	StateGoodEnough  State = "GOOD_ENOUGH"
	StateNoProgress  State = "NO_PROGRESS"
)

// Result is C10's output: post_validate's {structural, visual_semantic,
// overall_confidence, issues, suggestions, refinement_iterations}.
type Result struct {
	SVG                []byte
	Structural         *Report
	VLM                *llmclient.VLMResult
	OverallConfidence  float64
	Iterations         int
	FinalState         State
}

// Options configures one refinement run.
type Options struct {
	MinObjectSpacing float64
	CanvasWidth      float64
	CanvasHeight     float64
	RenderOptions    render.Options
	Penalties        Penalties
	Fixer            Fixer
}

// DefaultOptions mirrors render.DefaultOptions' canvas size.
func DefaultOptions() Options {
	ro := render.DefaultOptions()
	return Options{
		MinObjectSpacing: 12,
		CanvasWidth:      float64(ro.Width),
		CanvasHeight:     float64(ro.Height),
		RenderOptions:    ro,
		Penalties:        DefaultPenalties(),
		Fixer:            DefaultFixer{},
	}
}

// Run executes the bounded validate->fix->re-render loop, then an optional
// VLM pass, per spec.md §4.10's post_validate operation.
func Run(ctx context.Context, sc *scene.Scene, problemText string, ruleResults []rules.CheckResult, failedConstraints []string, vlm llmclient.VLM, r *rng.RNG, opts Options) (*Result, error) {
	fixer := opts.Fixer
	if fixer == nil {
		fixer = DefaultFixer{}
	}

	var report *Report
	state := StateValidating
	iterations := 0

	for i := 0; i < MaxIterations; i++ {
		iterations = i + 1
		state = StateValidating
		report = ValidateStructural(sc, opts.MinObjectSpacing, opts.CanvasWidth, opts.CanvasHeight, ruleResults, failedConstraints, opts.Penalties)
		if report.Passed(GoodEnoughThreshold) {
			state = StateGoodEnough
			break
		}

		state = StateFixing
		fixed := fixer.Fix(sc, report.Issues, opts.CanvasWidth, opts.CanvasHeight, r)
		if fixed == 0 {
			state = StateNoProgress
			break
		}
		state = StateRerendering
	}

	svg, err := render.Render(sc, opts.RenderOptions)
	if err != nil {
		return nil, err
	}

	result := &Result{
		SVG:               svg,
		Structural:         report,
		OverallConfidence:  report.OverallScore / 100,
		Iterations:         iterations,
		FinalState:         state,
	}

	if vlm != nil {
		verdict, err := vlm.Validate(ctx, string(svg), problemText)
		if err == nil && verdict != nil {
			result.VLM = verdict
			result.OverallConfidence = (report.OverallScore/100 + verdict.Confidence) / 2
		}
	}

	return result, nil
}
