package refine

import (
	"math"

	"github.com/dshills/diagramgen/pkg/rng"
	"github.com/dshills/diagramgen/pkg/scene"
)

// Fixer mutates a scene in place to resolve structural issues. It returns
// the number of issues it actually changed something for, which the loop
// uses to detect no-progress termination (spec's `if fixed == 0: break`).
type Fixer interface {
	Fix(sc *scene.Scene, issues []Issue, canvasWidth, canvasHeight float64, r *rng.RNG) int
}

// DefaultFixer dispatches on Issue.Kind: it never inspects Issue.Detail, so
// adding a new message format never silently stops fixing things.
type DefaultFixer struct{}

func (DefaultFixer) Fix(sc *scene.Scene, issues []Issue, canvasWidth, canvasHeight float64, r *rng.RNG) int {
	objByID := make(map[string]*scene.Object, len(sc.Objects))
	for _, o := range sc.Objects {
		objByID[o.ID] = o
	}

	fixed := 0
	for _, issue := range issues {
		switch issue.Kind {
		case IssueOverlap:
			if len(issue.ObjectIDs) == 2 && separate(objByID[issue.ObjectIDs[0]], objByID[issue.ObjectIDs[1]], r) {
				fixed++
			}
		case IssueOutOfBounds:
			if len(issue.ObjectIDs) == 1 && clampToCanvas(objByID[issue.ObjectIDs[0]], canvasWidth, canvasHeight) {
				fixed++
			}
		case IssueLabelCollision:
			if len(issue.ObjectIDs) == 2 && nudgeLabel(objByID[issue.ObjectIDs[0]]) {
				fixed++
			}
		case IssueConstraintViolation, IssueDomainRuleFailure:
			// No generic structural remedy: these require re-planning or
			// re-interpreting the scene, which is outside the fixer's
			// mandate. The loop surfaces them unresolved via the report.
		}
	}
	return fixed
}

func separate(a, b *scene.Object, r *rng.RNG) bool {
	if a == nil || b == nil {
		return false
	}
	minX1, minY1 := a.Position.X, a.Position.Y
	maxX1, maxY1 := a.Position.X+a.Width, a.Position.Y+a.Height
	minX2, minY2 := b.Position.X, b.Position.Y
	maxX2, maxY2 := b.Position.X+b.Width, b.Position.Y+b.Height

	overlapX := math.Min(maxX1, maxX2) - math.Max(minX1, minX2)
	overlapY := math.Min(maxY1, maxY2) - math.Max(minY1, minY2)
	if overlapX <= 0 && overlapY <= 0 {
		return false
	}

	// Matches DefaultOptions' MinObjectSpacing, so a separated pair clears
	// ValidateStructural's spacing check on the next pass.
	const spacing = 12.0
	jitter := 0.0
	if r != nil {
		jitter = (r.Float64() - 0.5) * 4
	}

	if overlapX < overlapY {
		sep := (overlapX + spacing) / 2
		if a.Position.X <= b.Position.X {
			a.Position.X -= sep
			b.Position.X += sep
		} else {
			a.Position.X += sep
			b.Position.X -= sep
		}
		a.Position.Y += jitter
	} else {
		sep := (overlapY + spacing) / 2
		if a.Position.Y <= b.Position.Y {
			a.Position.Y -= sep
			b.Position.Y += sep
		} else {
			a.Position.Y += sep
			b.Position.Y -= sep
		}
		a.Position.X += jitter
	}
	return true
}

func clampToCanvas(o *scene.Object, canvasWidth, canvasHeight float64) bool {
	if o == nil || canvasWidth <= 0 || canvasHeight <= 0 {
		return false
	}
	changed := false
	if o.Position.X < 0 {
		o.Position.X = 0
		changed = true
	}
	if o.Position.Y < 0 {
		o.Position.Y = 0
		changed = true
	}
	if o.Position.X+o.Width > canvasWidth {
		o.Position.X = canvasWidth - o.Width
		changed = true
	}
	if o.Position.Y+o.Height > canvasHeight {
		o.Position.Y = canvasHeight - o.Height
		changed = true
	}
	return changed
}

// nudgeLabel pushes one of the two colliding objects' anchor point down so
// its label clears the other. Label position is derived from object
// position in the renderer, so moving the object is how label placement
// gets fixed; there is no separate label coordinate to adjust.
func nudgeLabel(o *scene.Object) bool {
	if o == nil {
		return false
	}
	o.Position.Y += 16
	return true
}
