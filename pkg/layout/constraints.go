package layout

import (
	"math"
	"sort"

	"github.com/dshills/diagramgen/pkg/scene"
)

// applyConstraints runs one relaxation pass of every constraint against
// positions, nudging violating objects toward satisfaction. It is shared
// verbatim by the heuristic solver's satisfyConstraints phase (spec
// §4.8.1) and the native SMT solver's post-grid-pack relaxation (spec
// §4.8.2) so the two back-ends never drift in how a given constraint type
// is interpreted. CLOSED_LOOP is deliberately not corrected here: spec
// §4.8.3 treats it as a verification-only property, checked post-hoc by
// VerifyConstraints, not something a corrective displacement can aim for.
func applyConstraints(positions map[string]scene.Position, constraints []Constraint) {
	for _, c := range constraints {
		switch c.Kind {
		case "ALIGNMENT":
			applyAlignment(positions, c)
		case "DISTANCE":
			applyDistance(positions, c)
		case "NO_OVERLAP":
			applyNoOverlap(positions, c)
		case "BETWEEN":
			applyBetween(positions, c)
		case "BOUNDS":
			applyBounds(positions, c)
		}
	}
}

// priorityWeight scales how much of a constraint's corrective displacement
// is actually applied in one relaxation pass, so a CRITICAL constraint
// converges faster than a LOW one sharing the same budget of iterations.
func priorityWeight(priority string) float64 {
	switch priority {
	case "CRITICAL":
		return 1.0
	case "HIGH":
		return 0.75
	case "NORMAL":
		return 0.5
	case "LOW":
		return 0.25
	default:
		return 0.5
	}
}

func paramFloat(params map[string]interface{}, key string, fallback float64) float64 {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

// applyAlignment snaps every entity after the first onto the first
// entity's y coordinate (y_i = y_j per spec §4.8.2), weighted by priority.
func applyAlignment(positions map[string]scene.Position, c Constraint) {
	if len(c.Entities) < 2 {
		return
	}
	anchor, ok := positions[c.Entities[0]]
	if !ok {
		return
	}
	weight := priorityWeight(string(c.Priority))
	for _, id := range c.Entities[1:] {
		p, ok := positions[id]
		if !ok {
			continue
		}
		p.Y += (anchor.Y - p.Y) * weight
		positions[id] = p
	}
}

// applyDistance pulls or pushes every pair of entities so their separation
// falls inside [min, max] (spec §4.8.1's attraction/repulsion and §4.8.2's
// |p_i - p_j| in [min, max] assertion).
func applyDistance(positions map[string]scene.Position, c Constraint) {
	if len(c.Entities) < 2 {
		return
	}
	min := paramFloat(c.Parameters, "min", 20)
	max := paramFloat(c.Parameters, "max", 200)
	weight := priorityWeight(string(c.Priority))

	for i := 0; i < len(c.Entities); i++ {
		for j := i + 1; j < len(c.Entities); j++ {
			p1, ok1 := positions[c.Entities[i]]
			p2, ok2 := positions[c.Entities[j]]
			if !ok1 || !ok2 {
				continue
			}
			dx, dy := p2.X-p1.X, p2.Y-p1.Y
			dist := math.Hypot(dx, dy)
			if dist < 0.001 {
				dx, dy, dist = 1, 0, 1
			}
			var target float64
			switch {
			case dist < min:
				target = min
			case dist > max:
				target = max
			default:
				continue
			}
			delta := (target - dist) / dist * weight / 2
			p1.X -= dx * delta
			p1.Y -= dy * delta
			p2.X += dx * delta
			p2.Y += dy * delta
			positions[c.Entities[i]] = p1
			positions[c.Entities[j]] = p2
		}
	}
}

// applyNoOverlap pushes every pair of entities apart along their
// center-to-center vector until they clear the configured margin,
// implementing spec §4.8.1's corrective push phase.
func applyNoOverlap(positions map[string]scene.Position, c Constraint) {
	margin := paramFloat(c.Parameters, "margin", 12)
	weight := priorityWeight(string(c.Priority))
	ids := append([]string(nil), c.Entities...)
	sort.Strings(ids)

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			p1, ok1 := positions[ids[i]]
			p2, ok2 := positions[ids[j]]
			if !ok1 || !ok2 {
				continue
			}
			dx, dy := p2.X-p1.X, p2.Y-p1.Y
			dist := math.Hypot(dx, dy)
			if dist >= margin {
				continue
			}
			if dist < 0.001 {
				dx, dy, dist = 1, 0, 1
			}
			push := (margin - dist) / dist * weight / 2
			p1.X -= dx * push
			p1.Y -= dy * push
			p2.X += dx * push
			p2.Y += dy * push
			positions[ids[i]] = p1
			positions[ids[j]] = p2
		}
	}
}

// applyBetween spaces the entities from Entities[2:] evenly along the
// segment between the first two (the flanking reference objects), on the
// midpoint's Y; a single trailing entity lands on the midpoint itself.
func applyBetween(positions map[string]scene.Position, c Constraint) {
	if len(c.Entities) < 3 {
		return
	}
	a, okA := positions[c.Entities[0]]
	b, okB := positions[c.Entities[1]]
	if !okA || !okB {
		return
	}
	mid := scene.Position{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	weight := priorityWeight(string(c.Priority))
	between := c.Entities[2:]
	spread := (b.X - a.X) / float64(len(between)+1)

	for i, id := range between {
		p, ok := positions[id]
		if !ok {
			continue
		}
		target := scene.Position{X: mid.X - (b.X-a.X)/2 + spread*float64(i+1), Y: mid.Y}
		p.X += (target.X - p.X) * weight
		p.Y += (target.Y - p.Y) * weight
		positions[id] = p
	}
}

// applyBounds clamps every entity's position into [min_x, max_x] x
// [min_y, max_y], defaulting to the full canvas when a bound isn't given.
// This is how HIERARCHICAL's subproblem regions (spec §4.6) actually
// survive into the final layout: as a BOUNDS constraint C8 enforces, not a
// raw position offset C8 would otherwise discard.
func applyBounds(positions map[string]scene.Position, c Constraint) {
	minX := paramFloat(c.Parameters, "min_x", -1e9)
	maxX := paramFloat(c.Parameters, "max_x", 1e9)
	minY := paramFloat(c.Parameters, "min_y", -1e9)
	maxY := paramFloat(c.Parameters, "max_y", 1e9)

	for _, id := range c.Entities {
		p, ok := positions[id]
		if !ok {
			continue
		}
		if p.X < minX {
			p.X = minX
		}
		if p.X > maxX {
			p.X = maxX
		}
		if p.Y < minY {
			p.Y = minY
		}
		if p.Y > maxY {
			p.Y = maxY
		}
		positions[id] = p
	}
}
