// Package pipeline implements the single orchestrator that binds C1
// through C11 into one request-scoped Generate call, per spec.md §5's
// "single-threaded, sequential per request; phases do not overlap" model:
// every phase below runs to completion before the next starts, with the
// sole exception of C1's internal tool fan-out (bounded parallelism inside
// nlpenrich.Enrich, not between pipeline phases).
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/diagramgen/pkg/llmclient"
	"github.com/dshills/diagramgen/pkg/nlpenrich"
	"github.com/dshills/diagramgen/pkg/ontology"
	"github.com/dshills/diagramgen/pkg/planner"
	"github.com/dshills/diagramgen/pkg/propgraph"
	"github.com/dshills/diagramgen/pkg/refine"
	"github.com/dshills/diagramgen/pkg/render"
	"github.com/dshills/diagramgen/pkg/rng"
	"github.com/dshills/diagramgen/pkg/rules"
	"github.com/dshills/diagramgen/pkg/scene"
	"github.com/dshills/diagramgen/pkg/trace"

	"github.com/dshills/diagramgen/pkg/layout"
)

// Generator is the pipeline's entry contract, mirroring the teacher's
// Generator/Validator split so a caller can swap in a test double.
type Generator interface {
	Generate(ctx context.Context, problemText string) (*DiagramResult, error)
}

// DefaultGenerator runs the full C1..C11 chain against one Config. It holds
// no per-request mutable state of its own: the property graph, scene, and
// tracer are all request-local, so one DefaultGenerator may safely serve
// many sequential or even concurrent Generate calls (§5's "must each own
// their own graph and tracer" requirement is satisfied by never sharing
// either across calls).
type DefaultGenerator struct {
	cfg *Config
	llm llmclient.LLM
	vlm llmclient.VLM
}

// NewGenerator constructs a DefaultGenerator from cfg, resolving the
// LLM/VLM providers once up front (missing credentials downgrade to the
// stub provider per §6.5, not a construction error).
func NewGenerator(cfg *Config) *DefaultGenerator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	g := &DefaultGenerator{cfg: cfg}
	if cfg.EnableVLM {
		vlm, ok := llmclient.NewVLM(cfg.VLMProvider)
		g.vlm = vlm
		if !ok {
			slog.Warn("pipeline: VLM provider unavailable, using stub", "provider", cfg.VLMProvider.Type)
		}
	}
	llm, ok := llmclient.NewLLM(cfg.LLMProvider)
	g.llm = llm
	if !ok {
		slog.Debug("pipeline: LLM provider unavailable, using stub", "provider", cfg.LLMProvider.Type)
	}
	return g
}

// Generate runs the full pipeline for one problem statement.
func (g *DefaultGenerator) Generate(ctx context.Context, problemText string) (*DiagramResult, error) {
	cfg := g.cfg
	tracer := trace.New()
	result := &DiagramResult{Metadata: Metadata{RequestID: tracer.RequestID()}}

	if strings.TrimSpace(problemText) == "" {
		err := wrapStage("input", ErrInputError, fmt.Errorf("empty problem text"))
		result.Errors = append(result.Errors, err.Error())
		tracer.LogWarning("input", "empty problem text")
		return result, err
	}

	configHash := cfg.Hash()

	// --- C1: NLP Enricher ---
	if err := checkCancelled(ctx, tracer, result, "nlp_enrich"); err != nil {
		return result, err
	}
	tracer.StartComponent("nlp_enrich", map[string]interface{}{"tools": cfg.EnabledTools})
	nlpResult, err := nlpenrich.Enrich(ctx, problemText, cfg.EnabledTools)
	tracer.CompleteComponent("nlp_enrich", nil, err)
	if err != nil {
		return result, wrapStage("nlp_enrich", ErrFatal, err)
	}
	result.NLPResults = nlpResult
	result.Metadata.LastCompletedPhase = "nlp_enrich"
	for tool, reason := range nlpResult.Failures {
		msg := fmt.Sprintf("tool %s failed: %s", tool, reason)
		result.Warnings = append(result.Warnings, msg)
		tracer.LogWarning("nlp_enrich", msg)
	}
	if len(nlpResult.Tools) == 0 {
		result.Metadata.DegradedMode = true
	}

	// --- C2: Property-Graph Builder ---
	if err := checkCancelled(ctx, tracer, result, "property_graph"); err != nil {
		return result, err
	}
	tracer.StartComponent("property_graph", nil)
	graph, err := propgraph.Build(nlpResult)
	tracer.CompleteComponent("property_graph", map[string]interface{}{"node_count": len(graph.Nodes)}, err)
	if err != nil {
		return result, wrapStage("property_graph", ErrFatal, err)
	}
	result.PropertyGraph = graph
	result.Metadata.LastCompletedPhase = "property_graph"
	if cfg.EnablePropertyGraph && cfg.OutputDir != "" {
		path := fmt.Sprintf("%s/property_graphs/%s/property_graph.json", cfg.OutputDir, tracer.RequestID())
		if err := graph.SaveJSON(path); err != nil {
			msg := fmt.Sprintf("persisting property graph: %v", err)
			result.Warnings = append(result.Warnings, msg)
			tracer.LogWarning("property_graph", msg)
		}
	}

	// --- C3: Ontology Validator (optional) ---
	domain := cfg.Domain
	if domain == "" {
		domain = inferDomain(graph)
	}
	if cfg.EnableOntologyValidation {
		if err := checkCancelled(ctx, tracer, result, "ontology"); err != nil {
			return result, err
		}
		tracer.StartComponent("ontology", map[string]interface{}{"domain": domain})
		report, enriched, err := ontology.Validate(ctx, graph, domain)
		tracer.CompleteComponent("ontology", nil, err)
		if err != nil {
			msg := fmt.Sprintf("ontology validation failed: %v", err)
			result.Warnings = append(result.Warnings, msg)
			tracer.LogWarning("ontology", msg)
			result.Metadata.DegradedMode = true
		} else {
			result.OntologyValidation = report
			if report.Unavailable {
				result.Metadata.DegradedMode = true
			}
			if cfg.AdoptOntologyEnrichment && enriched != nil {
				graph = enriched
				result.PropertyGraph = graph
			}
		}
		result.Metadata.LastCompletedPhase = "ontology"
	}

	// --- 4.4.1: Temporal Analyzer + C4: Diagram Planner ---
	if err := checkCancelled(ctx, tracer, result, "plan"); err != nil {
		return result, err
	}
	tracer.StartComponent("plan", map[string]interface{}{"domain": domain})
	temporal, err := (planner.TemporalAnalyzer{}).Analyze(problemText)
	if err != nil {
		msg := fmt.Sprintf("temporal analysis failed: %v", err)
		result.Warnings = append(result.Warnings, msg)
		tracer.LogWarning("plan", msg)
	}
	plan, err := planner.PlanFromPropertyGraph(graph, domain, problemText, temporal, nil)
	tracer.CompleteComponent("plan", nil, err)
	if err != nil {
		return result, wrapStage("plan", ErrFatal, err)
	}
	result.DiagramPlan = plan
	result.Metadata.LastCompletedPhase = "plan"

	// --- C6: Scene Builder (uses C5 internally) ---
	if err := checkCancelled(ctx, tracer, result, "scene"); err != nil {
		return result, err
	}
	tracer.StartComponent("scene", map[string]interface{}{"strategy": string(plan.Strategy)})
	sc, err := scene.Build(graph, domain, plan)
	tracer.CompleteComponent("scene", map[string]interface{}{"object_count": len(objectsOf(sc))}, err)
	if err != nil {
		return result, wrapStage("scene", ErrFatal, err)
	}
	result.Scene = sc
	result.Metadata.LastCompletedPhase = "scene"

	// --- C7: Domain-Rule Engine ---
	if err := checkCancelled(ctx, tracer, result, "rules"); err != nil {
		return result, err
	}
	tracer.StartComponent("rules", nil)
	ruleResults := rules.Check(sc, cfg.Tolerance)
	tracer.CompleteComponent("rules", map[string]interface{}{"check_count": len(ruleResults)}, nil)
	result.DomainRuleReport = ruleResults
	result.Metadata.LastCompletedPhase = "rules"
	for _, rr := range ruleResults {
		if !rr.Passed && rr.Severity == "hard" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("rule %s failed: %s", rr.Rule, rr.Details))
		}
	}

	// --- C8: Layout Engine ---
	if err := checkCancelled(ctx, tracer, result, "layout"); err != nil {
		return result, err
	}
	tracer.StartComponent("layout", nil)
	layoutRNG := rng.NewRNG(cfg.Seed, "layout", configHash)
	constraints := layoutConstraintsFromPlan(plan, sc)
	var smtSolver layout.SMTSolver
	if cfg.EnableSMT {
		smtSolver = layout.NewNativeSMTSolver(cfg.Layout.MinObjectSpacing, cfg.Layout.GridQuantization)
	}
	layoutResult, verifyIssues, err := layout.Solve(ctx, sc, constraints, smtSolver, cfg.Layout, layoutRNG)
	tracer.CompleteComponent("layout", map[string]interface{}{"algorithm": solverName(layoutResult), "issue_count": len(verifyIssues)}, err)
	if err != nil {
		return result, wrapStage("layout", ErrFatal, err)
	}
	applyPositions(sc, layoutResult)
	result.Metadata.LayoutSolver = solverName(layoutResult)
	result.Metadata.LastCompletedPhase = "layout"
	for _, vi := range verifyIssues {
		result.Warnings = append(result.Warnings, fmt.Sprintf("layout verification: %s", vi.Detail))
	}

	// --- C10: Refinement Loop (wraps C9 Render) ---
	failedConstraints := failedConstraintNames(plan, verifyIssues)
	if cfg.EnableRefinement {
		if err := checkCancelled(ctx, tracer, result, "refine"); err != nil {
			return result, err
		}
		tracer.StartComponent("refine", nil)
		refineRNG := rng.NewRNG(cfg.Seed, "refine", configHash)
		refineOpts := refine.DefaultOptions()
		refineOpts.CanvasWidth = float64(cfg.CanvasWidth)
		refineOpts.CanvasHeight = float64(cfg.CanvasHeight)
		refineOpts.MinObjectSpacing = cfg.Layout.MinObjectSpacing
		refineOpts.RenderOptions.Width = cfg.CanvasWidth
		refineOpts.RenderOptions.Height = cfg.CanvasHeight

		var vlm llmclient.VLM
		if cfg.EnableVLM {
			vlm = g.vlm
		}
		refineResult, err := refine.Run(ctx, sc, problemText, ruleResults, failedConstraints, vlm, refineRNG, refineOpts)
		tracer.CompleteComponent("refine", map[string]interface{}{"iterations": valueOrZero(refineResult)}, err)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("renderer error: %v", err))
			svg, renderErr := render.Render(nil, render.DefaultOptions())
			if renderErr == nil {
				result.SVG = svg
			}
			return result, wrapStage("render", ErrRenderer, err)
		}
		result.Validation = refineResult
		result.SVG = refineResult.SVG
		result.VLM = refineResult.VLM
		result.Metadata.RefinementState = string(refineResult.FinalState)
		if refineResult.FinalState == refine.StateNoProgress {
			result.Metadata.DegradedMode = true
		}
	} else {
		renderOpts := render.DefaultOptions()
		renderOpts.Width = cfg.CanvasWidth
		renderOpts.Height = cfg.CanvasHeight
		svg, err := render.Render(sc, renderOpts)
		if err != nil {
			return result, wrapStage("render", ErrRenderer, err)
		}
		result.SVG = svg
	}
	result.Metadata.LastCompletedPhase = "refine"

	rec := tracer.Finish()
	if cfg.OutputDir != "" {
		if _, err := rec.Save(fmt.Sprintf("%s/logs", cfg.OutputDir)); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("persisting trace: %v", err))
		}
	}

	return result, nil
}

func checkCancelled(ctx context.Context, tracer *trace.Tracer, result *DiagramResult, phase string) error {
	select {
	case <-ctx.Done():
		tracer.LogWarning(phase, "context cancelled before phase start")
		return wrapStage(phase, ErrFatal, ctx.Err())
	default:
		return nil
	}
}

func objectsOf(sc *scene.Scene) []*scene.Object {
	if sc == nil {
		return nil
	}
	return sc.Objects
}

func solverName(r *layout.Result) string {
	if r == nil {
		return ""
	}
	return r.Algorithm
}

func valueOrZero(r *refine.Result) int {
	if r == nil {
		return 0
	}
	return r.Iterations
}

func applyPositions(sc *scene.Scene, r *layout.Result) {
	if sc == nil || r == nil {
		return
	}
	for _, o := range sc.Objects {
		if p, ok := r.Positions[o.ID]; ok {
			o.Position = p
		}
	}
}

// layoutConstraintsFromPlan translates C4's LayoutConstraints and C6's
// scene-level Constraints (subproblem BOUNDS from HIERARCHICAL, extracted
// spatial relations from CONSTRAINT_FIRST) into C8's Constraint shape. Both
// sources share the same Type vocabulary, so the translation is direct.
func layoutConstraintsFromPlan(plan *planner.Plan, sc *scene.Scene) []layout.Constraint {
	var out []layout.Constraint
	if plan != nil {
		for _, lc := range plan.Constraints {
			out = append(out, layout.Constraint{
				Kind:       lc.Type,
				Entities:   lc.Entities,
				Priority:   string(lc.Priority),
				Parameters: lc.Parameters,
			})
		}
	}
	if sc != nil {
		for _, sceneConstraint := range sc.Constraints {
			out = append(out, layout.Constraint{
				Kind:       sceneConstraint.Type,
				Entities:   sceneConstraint.ObjectIDs,
				Parameters: sceneConstraint.Parameters,
			})
		}
	}
	return out
}

// failedConstraintNames maps C8's post-layout VerifyIssues back onto the
// LayoutConstraint types C4/C6 asked the layout to satisfy, for
// refine.ValidateStructural's IssueConstraintViolation classification. A
// constraint is only "generated" in the first place when its guard
// expression already matched the graph at plan time (see
// planner.generateConstraints), so what matters post-layout is whether the
// solver actually achieved it, not re-evaluating the guard again.
func failedConstraintNames(plan *planner.Plan, verifyIssues []layout.VerifyIssue) []string {
	if plan == nil || len(verifyIssues) == 0 {
		return nil
	}
	violatedKinds := make(map[string]bool, len(verifyIssues))
	for _, vi := range verifyIssues {
		switch vi.Kind {
		case "overlap":
			violatedKinds["NO_OVERLAP"] = true
		case "alignment":
			violatedKinds["ALIGNMENT"] = true
		case "distance":
			violatedKinds["DISTANCE"] = true
		case "bounds":
			violatedKinds["BOUNDS"] = true
		case "closed_loop":
			violatedKinds["CLOSED_LOOP"] = true
		default:
			violatedKinds[strings.ToUpper(vi.Kind)] = true
		}
	}
	var failed []string
	for _, lc := range plan.Constraints {
		if violatedKinds[lc.Type] {
			failed = append(failed, lc.Type)
		}
	}
	return failed
}

// inferDomain guesses a domain from the graph's node subtypes and labels
// when Config.Domain is left empty, since §6.1's entrypoint takes only
// problem_text and an options bag — nothing requires the caller to name the
// domain up front.
func inferDomain(g *propgraph.PropertyGraph) string {
	counts := map[string]int{}
	for _, n := range g.Nodes {
		label := strings.ToLower(n.Label)
		subtype, _ := n.Properties["subtype"].(string)
		switch {
		case subtype == "molecule" || strings.ContainsAny(label, "0123456789") && strings.ContainsAny(strings.ToUpper(label), "OHCN"):
			counts["chemistry"]++
		case subtype == "force" || strings.Contains(label, "mass") || strings.Contains(label, "incline") || strings.Contains(label, "friction"):
			counts["mechanics"]++
		case strings.Contains(label, "resistor") || strings.Contains(label, "capacitor") || strings.Contains(label, "battery") || strings.Contains(label, "circuit"):
			counts["electronics"]++
		case strings.Contains(label, "lens") || strings.Contains(label, "ray") || strings.Contains(label, "mirror"):
			counts["optics"]++
		case strings.Contains(label, "angle") || strings.Contains(label, "triangle") || strings.Contains(label, "circle"):
			counts["geometry"]++
		}
	}
	best, bestCount := "generic", 0
	for domain, c := range counts {
		if c > bestCount {
			best, bestCount = domain, c
		}
	}
	return best
}
