package layout

import (
	"fmt"
	"math"

	"github.com/dshills/diagramgen/pkg/scene"
)

// constraintTolerance is the slack spec §4.8.3's symbolic verification
// allows a solved layout before a constraint counts as violated; matches
// the spacing-scale the heuristic and SMT solvers both operate at.
const constraintTolerance = 5.0

// VerifyIssue describes one symbolic-verification failure.
type VerifyIssue struct {
	Kind      string
	ObjectIDs []string
	Detail    string
}

// SymbolicVerify checks a solved layout against the same spacing rule the
// heuristic solver enforces during resolution, so a layout produced by any
// solver (heuristic, native SMT, or a future real SMT backend) can be
// checked the same way before being handed to the renderer.
func SymbolicVerify(sc *scene.Scene, res *Result, minSpacing float64) []VerifyIssue {
	if res == nil {
		return []VerifyIssue{{Kind: "missing_layout", Detail: "no layout result to verify"}}
	}
	sizes := objectSizes(sc)
	ids := objectIDs(sc)

	var issues []VerifyIssue
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			id1, id2 := ids[i], ids[j]
			p1, ok1 := res.Positions[id1]
			p2, ok2 := res.Positions[id2]
			if !ok1 || !ok2 {
				continue
			}
			if overlaps(p1, sizes[id1], p2, sizes[id2], minSpacing) {
				issues = append(issues, VerifyIssue{
					Kind:      "overlap",
					ObjectIDs: []string{id1, id2},
					Detail:    fmt.Sprintf("objects %s and %s overlap or violate minimum spacing", id1, id2),
				})
			}
		}
	}
	return issues
}

// VerifyConstraints symbolically checks a solved layout against every
// LayoutConstraint the plan generated, per spec §4.8.3: ALIGNMENT
// (y_i == y_j within tolerance), DISTANCE (|p_i - p_j| in [min, max]),
// BOUNDS (inside the given box), and CLOSED_LOOP (the directed edges
// between the constraint's entities sum to approximately zero). NO_OVERLAP
// and BETWEEN are covered by SymbolicVerify's spacing check and by the
// solvers' own corrective passes respectively, so they are not
// re-symbolically-checked here.
func VerifyConstraints(res *Result, constraints []Constraint) []VerifyIssue {
	if res == nil {
		return nil
	}
	var issues []VerifyIssue
	for _, c := range constraints {
		switch c.Kind {
		case "ALIGNMENT":
			issues = append(issues, verifyAlignment(res, c)...)
		case "DISTANCE":
			issues = append(issues, verifyDistance(res, c)...)
		case "BOUNDS":
			issues = append(issues, verifyBounds(res, c)...)
		case "CLOSED_LOOP":
			issues = append(issues, verifyClosedLoop(res, c)...)
		}
	}
	return issues
}

func verifyAlignment(res *Result, c Constraint) []VerifyIssue {
	if len(c.Entities) < 2 {
		return nil
	}
	anchor, ok := res.Positions[c.Entities[0]]
	if !ok {
		return nil
	}
	var issues []VerifyIssue
	for _, id := range c.Entities[1:] {
		p, ok := res.Positions[id]
		if !ok {
			continue
		}
		if math.Abs(p.Y-anchor.Y) > constraintTolerance {
			issues = append(issues, VerifyIssue{
				Kind:      "alignment",
				ObjectIDs: []string{c.Entities[0], id},
				Detail:    fmt.Sprintf("%s is not aligned with %s within tolerance", id, c.Entities[0]),
			})
		}
	}
	return issues
}

func verifyDistance(res *Result, c Constraint) []VerifyIssue {
	if len(c.Entities) < 2 {
		return nil
	}
	min := paramFloat(c.Parameters, "min", 0)
	max := paramFloat(c.Parameters, "max", math.MaxFloat64)
	var issues []VerifyIssue
	for i := 0; i < len(c.Entities); i++ {
		for j := i + 1; j < len(c.Entities); j++ {
			p1, ok1 := res.Positions[c.Entities[i]]
			p2, ok2 := res.Positions[c.Entities[j]]
			if !ok1 || !ok2 {
				continue
			}
			dist := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
			if dist < min-constraintTolerance || dist > max+constraintTolerance {
				issues = append(issues, VerifyIssue{
					Kind:      "distance",
					ObjectIDs: []string{c.Entities[i], c.Entities[j]},
					Detail:    fmt.Sprintf("distance %.2f outside [%.2f, %.2f]", dist, min, max),
				})
			}
		}
	}
	return issues
}

func verifyBounds(res *Result, c Constraint) []VerifyIssue {
	minX := paramFloat(c.Parameters, "min_x", -math.MaxFloat64)
	maxX := paramFloat(c.Parameters, "max_x", math.MaxFloat64)
	minY := paramFloat(c.Parameters, "min_y", -math.MaxFloat64)
	maxY := paramFloat(c.Parameters, "max_y", math.MaxFloat64)
	var issues []VerifyIssue
	for _, id := range c.Entities {
		p, ok := res.Positions[id]
		if !ok {
			continue
		}
		if p.X < minX-constraintTolerance || p.X > maxX+constraintTolerance ||
			p.Y < minY-constraintTolerance || p.Y > maxY+constraintTolerance {
			issues = append(issues, VerifyIssue{
				Kind:      "bounds",
				ObjectIDs: []string{id},
				Detail:    fmt.Sprintf("%s at (%.2f, %.2f) falls outside its assigned bounds", id, p.X, p.Y),
			})
		}
	}
	return issues
}

// verifyClosedLoop checks that walking the constraint's entities in order
// and back to the start sums to approximately the zero vector, the
// geometric signature of a genuinely closed loop (sum of directed segment
// vectors around a cycle is always zero).
func verifyClosedLoop(res *Result, c Constraint) []VerifyIssue {
	if len(c.Entities) < 3 {
		return nil
	}
	var sumX, sumY float64
	for i := range c.Entities {
		from, ok1 := res.Positions[c.Entities[i]]
		to, ok2 := res.Positions[c.Entities[(i+1)%len(c.Entities)]]
		if !ok1 || !ok2 {
			return nil
		}
		sumX += to.X - from.X
		sumY += to.Y - from.Y
	}
	if math.Hypot(sumX, sumY) > constraintTolerance {
		return []VerifyIssue{{
			Kind:      "closed_loop",
			ObjectIDs: c.Entities,
			Detail:    "entity cycle does not close within tolerance",
		}}
	}
	return nil
}

func overlaps(p1 scene.Position, s1 [2]float64, p2 scene.Position, s2 [2]float64, spacing float64) bool {
	minX1, minY1 := p1.X, p1.Y
	maxX1, maxY1 := p1.X+s1[0], p1.Y+s1[1]
	minX2, minY2 := p2.X, p2.Y
	maxX2, maxY2 := p2.X+s2[0], p2.Y+s2[1]

	if maxX1+spacing <= minX2 || maxX2+spacing <= minX1 {
		return false
	}
	if maxY1+spacing <= minY2 || maxY2+spacing <= minY1 {
		return false
	}
	return true
}
