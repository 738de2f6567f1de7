package pipeline

import (
	"github.com/dshills/diagramgen/pkg/llmclient"
	"github.com/dshills/diagramgen/pkg/nlpenrich"
	"github.com/dshills/diagramgen/pkg/ontology"
	"github.com/dshills/diagramgen/pkg/planner"
	"github.com/dshills/diagramgen/pkg/propgraph"
	"github.com/dshills/diagramgen/pkg/refine"
	"github.com/dshills/diagramgen/pkg/rules"
	"github.com/dshills/diagramgen/pkg/scene"
)

// Metadata carries the out-of-band facts about how a request was
// processed: which phase it reached, whether it degraded, which solver
// actually produced the layout.
type Metadata struct {
	RequestID          string `json:"request_id"`
	LastCompletedPhase string `json:"last_completed_phase"`
	// DegradedMode is true when the pipeline completed but one or more
	// optional subsystems failed or were unavailable (§8.3: "all tools
	// fail ⇒ pipeline still completes with warnings; metadata.degraded=true").
	DegradedMode    bool   `json:"degraded"`
	LayoutSolver    string `json:"layout_solver,omitempty"`
	RefinementState string `json:"refinement_state,omitempty"`
}

// DiagramResult is C1..C10's combined output for one request (§6.1).
type DiagramResult struct {
	SVG                []byte                 `json:"-"`
	Scene              *scene.Scene           `json:"scene,omitempty"`
	PropertyGraph      *propgraph.PropertyGraph `json:"property_graph,omitempty"`
	DiagramPlan        *planner.Plan          `json:"diagram_plan,omitempty"`
	NLPResults         *nlpenrich.Result      `json:"nlp_results,omitempty"`
	OntologyValidation *ontology.Report       `json:"ontology_validation,omitempty"`
	DomainRuleReport   []rules.CheckResult    `json:"domain_rule_report,omitempty"`
	Validation         *refine.Result         `json:"validation,omitempty"`
	VLM                *llmclient.VLMResult   `json:"vlm,omitempty"`
	Metadata           Metadata               `json:"metadata"`
	Errors             []string               `json:"errors,omitempty"`
	Warnings           []string               `json:"warnings,omitempty"`
}
