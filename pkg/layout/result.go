package layout

import "github.com/dshills/diagramgen/pkg/scene"

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Result is a solved layout: one position per scene object, plus the
// overall bounds.
type Result struct {
	Positions map[string]scene.Position
	Bounds    Rect
	Algorithm string
}

func computeBounds(positions map[string]scene.Position, sizes map[string][2]float64) Rect {
	if len(positions) == 0 {
		return Rect{}
	}
	r := Rect{MinX: 1e18, MinY: 1e18, MaxX: -1e18, MaxY: -1e18}
	for id, p := range positions {
		w, h := 0.0, 0.0
		if s, ok := sizes[id]; ok {
			w, h = s[0], s[1]
		}
		if p.X < r.MinX {
			r.MinX = p.X
		}
		if p.Y < r.MinY {
			r.MinY = p.Y
		}
		if p.X+w > r.MaxX {
			r.MaxX = p.X + w
		}
		if p.Y+h > r.MaxY {
			r.MaxY = p.Y + h
		}
	}
	return r
}
