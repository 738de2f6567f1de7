package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/diagramgen/pkg/rng"
	"github.com/dshills/diagramgen/pkg/scene"
)

// HeuristicSolver positions scene objects with a force-directed simulation:
// connected objects attract via spring forces, all objects repel, then the
// result is quantized to a grid and overlaps are resolved iteratively.
type HeuristicSolver struct {
	config *Config
}

// NewHeuristicSolver creates a solver with the given config, or defaults if
// config is nil.
func NewHeuristicSolver(config *Config) *HeuristicSolver {
	if config == nil {
		config = DefaultConfig()
	}
	return &HeuristicSolver{config: config}
}

func (s *HeuristicSolver) Name() string { return "heuristic" }

type point struct {
	x, y   float64
	vx, vy float64
}

// satisfyConstraintsIterations bounds the corrective-displacement loop per
// spec §4.8.1.
const satisfyConstraintsIterations = 50

// Solve runs the six-phase heuristic layout: initialize, simulate forces,
// satisfy constraints, quantize, resolve overlaps, assemble result.
func (s *HeuristicSolver) Solve(sc *scene.Scene, constraints []Constraint, r *rng.RNG) (*Result, error) {
	if sc == nil {
		return nil, fmt.Errorf("layout: cannot solve a nil scene")
	}
	if len(sc.Objects) == 0 {
		return &Result{Positions: map[string]scene.Position{}, Algorithm: s.Name()}, nil
	}

	ids := objectIDs(sc)
	sizes := objectSizes(sc)

	positions := s.initializePositions(ids, r)
	s.simulateForces(sc, ids, positions)
	s.satisfyConstraints(positions, constraints)
	s.quantizeToGrid(positions)
	if err := s.resolveOverlaps(ids, sizes, positions, r); err != nil {
		return nil, fmt.Errorf("layout: resolve overlaps: %w", err)
	}

	out := make(map[string]scene.Position, len(positions))
	for id, p := range positions {
		out[id] = scene.Position{X: p.x, Y: p.y}
	}
	return &Result{
		Positions: out,
		Bounds:    computeBounds(out, sizes),
		Algorithm: s.Name(),
	}, nil
}

func objectIDs(sc *scene.Scene) []string {
	ids := make([]string, 0, len(sc.Objects))
	for _, o := range sc.Objects {
		ids = append(ids, o.ID)
	}
	sort.Strings(ids)
	return ids
}

func objectSizes(sc *scene.Scene) map[string][2]float64 {
	sizes := make(map[string][2]float64, len(sc.Objects))
	for _, o := range sc.Objects {
		w, h := o.Width, o.Height
		if w == 0 {
			w = 20
		}
		if h == 0 {
			h = 20
		}
		sizes[o.ID] = [2]float64{w, h}
	}
	return sizes
}

// initializePositions places objects at random points on a circle. Sorted
// IDs and a single RNG stream make this deterministic for a given seed.
func (s *HeuristicSolver) initializePositions(ids []string, r *rng.RNG) map[string]*point {
	positions := make(map[string]*point, len(ids))
	for _, id := range ids {
		angle := r.Float64() * 2 * math.Pi
		radius := r.Float64() * s.config.InitialSpread
		positions[id] = &point{x: radius * math.Cos(angle), y: radius * math.Sin(angle)}
	}
	return positions
}

func (s *HeuristicSolver) simulateForces(sc *scene.Scene, ids []string, positions map[string]*point) {
	dt := 0.1

	for iter := 0; iter < s.config.MaxIterations; iter++ {
		forces := make(map[string]struct{ fx, fy float64 }, len(positions))
		for _, id := range ids {
			forces[id] = struct{ fx, fy float64 }{}
		}

		for _, c := range sc.Connectors {
			from, okF := positions[c.From]
			to, okT := positions[c.To]
			if !okF || !okT {
				continue
			}
			dx := to.x - from.x
			dy := to.y - from.y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist <= 0.001 {
				continue
			}
			forceMag := s.config.SpringConstant * dist
			fx := forceMag * dx / dist
			fy := forceMag * dy / dist

			fromForce := forces[c.From]
			fromForce.fx += fx
			fromForce.fy += fy
			forces[c.From] = fromForce

			toForce := forces[c.To]
			toForce.fx -= fx
			toForce.fy -= fy
			forces[c.To] = toForce
		}

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				id1, id2 := ids[i], ids[j]
				p1, p2 := positions[id1], positions[id2]
				dx := p2.x - p1.x
				dy := p2.y - p1.y
				distSq := dx*dx + dy*dy
				if distSq <= 0.001 {
					continue
				}
				dist := math.Sqrt(distSq)
				forceMag := s.config.RepulsionConstant / distSq
				fx := forceMag * dx / dist
				fy := forceMag * dy / dist

				f1 := forces[id1]
				f1.fx -= fx
				f1.fy -= fy
				forces[id1] = f1

				f2 := forces[id2]
				f2.fx += fx
				f2.fy += fy
				forces[id2] = f2
			}
		}

		maxMovement := 0.0
		for _, id := range ids {
			p := positions[id]
			f := forces[id]
			p.vx = p.vx*s.config.DampingFactor + f.fx*dt
			p.vy = p.vy*s.config.DampingFactor + f.fy*dt
			p.x += p.vx * dt
			p.y += p.vy * dt

			if movement := math.Sqrt(p.vx*p.vx + p.vy*p.vy); movement > maxMovement {
				maxMovement = movement
			}
		}
		if maxMovement < s.config.StabilityThreshold {
			break
		}
	}
}

// satisfyConstraints runs applyConstraints for up to
// satisfyConstraintsIterations passes between force simulation and grid
// quantization (spec §4.8.1). It round-trips through scene.Position since
// applyConstraints is shared with the native SMT solver, which has no
// notion of velocity; velocity is zeroed afterward the same way
// quantizeToGrid already resets it after a discontinuous position jump.
func (s *HeuristicSolver) satisfyConstraints(positions map[string]*point, constraints []Constraint) {
	if len(constraints) == 0 {
		return
	}
	snapshot := make(map[string]scene.Position, len(positions))
	for id, p := range positions {
		snapshot[id] = scene.Position{X: p.x, Y: p.y}
	}
	for iter := 0; iter < satisfyConstraintsIterations; iter++ {
		applyConstraints(snapshot, constraints)
	}
	for id, p := range snapshot {
		if pt, ok := positions[id]; ok {
			pt.x, pt.y = p.X, p.Y
			pt.vx, pt.vy = 0, 0
		}
	}
}

func (s *HeuristicSolver) quantizeToGrid(positions map[string]*point) {
	if s.config.GridQuantization <= 0 {
		return
	}
	for _, p := range positions {
		p.x = math.Round(p.x/s.config.GridQuantization) * s.config.GridQuantization
		p.y = math.Round(p.y/s.config.GridQuantization) * s.config.GridQuantization
		p.vx, p.vy = 0, 0
	}
}

func (s *HeuristicSolver) resolveOverlaps(ids []string, sizes map[string][2]float64, positions map[string]*point, r *rng.RNG) error {
	const maxAttempts = 200

	for attempt := 0; attempt < maxAttempts; attempt++ {
		overlaps := s.findOverlaps(ids, sizes, positions)
		if len(overlaps) == 0 {
			return nil
		}
		for _, ov := range overlaps {
			s.separate(sizes, positions, ov[0], ov[1])
		}
		s.quantizeToGrid(positions)

		if attempt%20 == 19 {
			for _, id := range ids {
				p := positions[id]
				p.x += (r.Float64() - 0.5) * s.config.GridQuantization
				p.y += (r.Float64() - 0.5) * s.config.GridQuantization
			}
		}
	}

	if overlaps := s.findOverlaps(ids, sizes, positions); len(overlaps) > 0 {
		return fmt.Errorf("failed to resolve %d overlaps after %d attempts", len(overlaps), maxAttempts)
	}
	return nil
}

func (s *HeuristicSolver) findOverlaps(ids []string, sizes map[string][2]float64, positions map[string]*point) [][2]string {
	var overlaps [][2]string
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if s.objectsOverlap(sizes, positions, ids[i], ids[j]) {
				overlaps = append(overlaps, [2]string{ids[i], ids[j]})
			}
		}
	}
	return overlaps
}

func (s *HeuristicSolver) objectsOverlap(sizes map[string][2]float64, positions map[string]*point, id1, id2 string) bool {
	p1, p2 := positions[id1], positions[id2]
	size1, size2 := sizes[id1], sizes[id2]

	minX1, minY1 := p1.x, p1.y
	maxX1, maxY1 := p1.x+size1[0], p1.y+size1[1]
	minX2, minY2 := p2.x, p2.y
	maxX2, maxY2 := p2.x+size2[0], p2.y+size2[1]

	spacing := s.config.MinObjectSpacing
	if maxX1+spacing <= minX2 || maxX2+spacing <= minX1 {
		return false
	}
	if maxY1+spacing <= minY2 || maxY2+spacing <= minY1 {
		return false
	}
	return true
}

func (s *HeuristicSolver) separate(sizes map[string][2]float64, positions map[string]*point, id1, id2 string) {
	p1, p2 := positions[id1], positions[id2]
	size1, size2 := sizes[id1], sizes[id2]

	minX1, minY1 := p1.x, p1.y
	maxX1, maxY1 := p1.x+size1[0], p1.y+size1[1]
	minX2, minY2 := p2.x, p2.y
	maxX2, maxY2 := p2.x+size2[0], p2.y+size2[1]

	overlapX := math.Min(maxX1, maxX2) - math.Max(minX1, minX2)
	overlapY := math.Min(maxY1, maxY2) - math.Max(minY1, minY2)
	spacing := s.config.MinObjectSpacing

	if overlapX < overlapY {
		sep := (overlapX + spacing) / 2
		if p1.x < p2.x {
			p1.x -= sep
			p2.x += sep
		} else {
			p1.x += sep
			p2.x -= sep
		}
	} else {
		sep := (overlapY + spacing) / 2
		if p1.y < p2.y {
			p1.y -= sep
			p2.y += sep
		} else {
			p1.y += sep
			p2.y -= sep
		}
	}
}
