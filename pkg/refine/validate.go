package refine

import (
	"fmt"

	"github.com/dshills/diagramgen/pkg/layout"
	"github.com/dshills/diagramgen/pkg/rules"
	"github.com/dshills/diagramgen/pkg/scene"
)

// Penalties assigns a point cost per issue, deducted from a starting score
// of 100. Structural validators in the teacher's pack (validation.Validate's
// hard/soft split) treat hard failures as pass/fail and soft failures as
// continuous scores; this collapses both onto one axis so the loop has a
// single threshold to check each iteration.
type Penalties struct {
	Overlap             float64
	OutOfBounds         float64
	LabelCollision      float64
	ConstraintViolation float64
	DomainRuleFailure   float64
}

// DefaultPenalties mirrors the spec's GOOD_ENOUGH threshold of 80: a single
// overlap or out-of-bounds object is severe enough to trigger another
// iteration, while a domain-rule warning alone should not.
func DefaultPenalties() Penalties {
	return Penalties{
		Overlap:             25,
		OutOfBounds:         25,
		LabelCollision:      10,
		ConstraintViolation: 30,
		DomainRuleFailure:   15,
	}
}

// ValidateStructural checks a scene's current object positions for overlap,
// canvas-bounds, and label-collision defects, and folds in any
// already-computed domain-rule/constraint check results. minSpacing and
// canvas dimensions come from the same layout.Config used to produce the
// positions being checked.
func ValidateStructural(sc *scene.Scene, minSpacing, canvasWidth, canvasHeight float64, ruleResults []rules.CheckResult, failedConstraints []string, penalties Penalties) *Report {
	report := &Report{OverallScore: 100}
	if sc == nil {
		return report
	}

	res := &layout.Result{Positions: positionsFromScene(sc)}
	for _, vi := range layout.SymbolicVerify(sc, res, minSpacing) {
		report.Issues = append(report.Issues, Issue{
			Kind:      IssueOverlap,
			ObjectIDs: vi.ObjectIDs,
			Detail:    vi.Detail,
		})
		report.OverallScore -= penalties.Overlap
	}

	for _, o := range sc.Objects {
		if outOfBounds(o, canvasWidth, canvasHeight) {
			report.Issues = append(report.Issues, Issue{
				Kind:      IssueOutOfBounds,
				ObjectIDs: []string{o.ID},
				Params:    map[string]float64{"canvas_width": canvasWidth, "canvas_height": canvasHeight},
				Detail:    fmt.Sprintf("object %s falls outside the %0.fx%0.f canvas", o.ID, canvasWidth, canvasHeight),
			})
			report.OverallScore -= penalties.OutOfBounds
		}
	}

	for _, pair := range labelCollisions(sc) {
		report.Issues = append(report.Issues, Issue{
			Kind:      IssueLabelCollision,
			ObjectIDs: pair,
			Detail:    fmt.Sprintf("labels for %s and %s overlap", pair[0], pair[1]),
		})
		report.OverallScore -= penalties.LabelCollision
	}

	for _, rr := range ruleResults {
		if rr.Passed {
			continue
		}
		penalty := penalties.DomainRuleFailure
		if rr.Severity == "hard" {
			penalty *= 1.5
		}
		report.Issues = append(report.Issues, Issue{Kind: IssueDomainRuleFailure, Detail: rr.Details})
		report.OverallScore -= penalty
	}

	for _, detail := range failedConstraints {
		report.Issues = append(report.Issues, Issue{Kind: IssueConstraintViolation, Detail: detail})
		report.OverallScore -= penalties.ConstraintViolation
	}

	if report.OverallScore < 0 {
		report.OverallScore = 0
	}
	return report
}

func positionsFromScene(sc *scene.Scene) map[string]scene.Position {
	out := make(map[string]scene.Position, len(sc.Objects))
	for _, o := range sc.Objects {
		out[o.ID] = o.Position
	}
	return out
}

func outOfBounds(o *scene.Object, canvasWidth, canvasHeight float64) bool {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return false
	}
	w, h := o.Width, o.Height
	return o.Position.X < 0 || o.Position.Y < 0 ||
		o.Position.X+w > canvasWidth || o.Position.Y+h > canvasHeight
}

// labelCollisions approximates each label's footprint from its text length
// and checks pairwise overlap, the same bounding-box approach
// layout.SymbolicVerify uses for object footprints.
func labelCollisions(sc *scene.Scene) [][2]string {
	type box struct {
		id         string
		minX, minY float64
		maxX, maxY float64
	}
	var boxes []box
	for _, o := range sc.Objects {
		if o.Label == "" {
			continue
		}
		w := float64(len(o.Label)) * 7
		h := 14.0
		x := o.Position.X - w/2
		y := o.Position.Y - 10 - h
		boxes = append(boxes, box{id: o.ID, minX: x, minY: y, maxX: x + w, maxY: y + h})
	}

	var collisions [][2]string
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			a, b := boxes[i], boxes[j]
			if a.maxX <= b.minX || b.maxX <= a.minX {
				continue
			}
			if a.maxY <= b.minY || b.maxY <= a.minY {
				continue
			}
			collisions = append(collisions, [2]string{a.id, b.id})
		}
	}
	return collisions
}
