package render

import (
	"fmt"
	"math"
	"sort"
	"sync"

	svg "github.com/ajstarks/svgo"

	"github.com/dshills/diagramgen/pkg/scene"
)

// Style carries the resolved visual attributes a glyph function draws with.
// Glyph functions read dimensions exclusively from properties/width/height,
// never from position: position is where, properties are what.
type Style struct {
	Stroke      string
	Fill        string
	LabelColor  string
	StrokeWidth float64
	FontFamily  string
}

// GlyphFunc draws one scene object onto the canvas at its resolved position.
// It must read size data only from obj.Width/obj.Height/obj.Properties, per
// the position-vs-properties rule above.
type GlyphFunc func(canvas *svg.SVG, obj *scene.Object, style Style)

var (
	glyphMu sync.RWMutex
	glyphs  = map[string]GlyphFunc{}
)

// RegisterGlyph adds or replaces the glyph function for a PrimitiveType.
func RegisterGlyph(primitiveType string, fn GlyphFunc) {
	glyphMu.Lock()
	defer glyphMu.Unlock()
	glyphs[primitiveType] = fn
}

// GlyphFor returns the registered glyph function for a PrimitiveType, or the
// generic fallback box if none is registered.
func GlyphFor(primitiveType string) GlyphFunc {
	glyphMu.RLock()
	fn, ok := glyphs[primitiveType]
	glyphMu.RUnlock()
	if !ok {
		return drawGenericBox
	}
	return fn
}

// ListGlyphs returns the registered PrimitiveTypes, sorted.
func ListGlyphs() []string {
	glyphMu.RLock()
	defer glyphMu.RUnlock()
	names := make([]string, 0, len(glyphs))
	for name := range glyphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterGlyph("resistor", drawResistor)
	RegisterGlyph("capacitor", drawCapacitor)
	RegisterGlyph("battery", drawBattery)
	RegisterGlyph("inductor", drawInductor)
	RegisterGlyph("led", drawLED)
	RegisterGlyph("wire", drawWire)

	RegisterGlyph("block", drawBlock)
	RegisterGlyph("mass", drawBlock)
	RegisterGlyph("incline", drawIncline)
	RegisterGlyph("force_arrow", drawForceArrow)
	RegisterGlyph("pulley", drawPulley)
	RegisterGlyph("spring", drawSpring)

	RegisterGlyph("lens", drawLens)
	RegisterGlyph("ray", drawRay)
	RegisterGlyph("mirror", drawMirror)

	RegisterGlyph("atom", drawAtom)
	RegisterGlyph("bond", drawBond)

	RegisterGlyph("point", drawPoint)
	RegisterGlyph("line_segment", drawLineSegment)
	RegisterGlyph("angle_arc", drawAngleArc)
}

func size(obj *scene.Object, defaultW, defaultH float64) (float64, float64) {
	w, h := obj.Width, obj.Height
	if w == 0 {
		w = defaultW
	}
	if h == 0 {
		h = defaultH
	}
	return w, h
}

func propFloat(obj *scene.Object, key string, fallback float64) float64 {
	if obj.Properties == nil {
		return fallback
	}
	switch v := obj.Properties[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func drawGenericBox(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 30, 30)
	x, y := int(obj.Position.X), int(obj.Position.Y)
	canvas.Rect(x, y, int(w), int(h), rectStyle(style))
}

func drawResistor(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 40, 16)
	x, y := obj.Position.X, obj.Position.Y
	segments := 6
	step := w / float64(segments)
	xs := make([]int, 0, segments+2)
	ys := make([]int, 0, segments+2)
	xs = append(xs, int(x))
	ys = append(ys, int(y+h/2))
	for i := 1; i <= segments; i++ {
		px := x + float64(i)*step
		py := y + h/2
		if i%2 == 1 {
			py -= h / 2
		} else {
			py += h / 2
		}
		xs = append(xs, int(px))
		ys = append(ys, int(py))
	}
	xs = append(xs, int(x+w))
	ys = append(ys, int(y+h/2))
	canvas.Polyline(xs, ys, lineStyle(style))
}

func drawCapacitor(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 20, 24)
	x, y := obj.Position.X, obj.Position.Y
	midX := x + w/2
	canvas.Line(int(x), int(y), int(x+w), int(y), lineStyle(style))
	canvas.Line(int(midX), int(y-h/2), int(midX), int(y+h/2), lineStyle(style))
	gap := 6.0
	canvas.Line(int(midX+gap), int(y-h/2), int(midX+gap), int(y+h/2), lineStyle(style))
	canvas.Line(int(midX+gap), int(y), int(x+w), int(y), lineStyle(style))
}

func drawBattery(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 24, 28)
	x, y := obj.Position.X, obj.Position.Y
	midX := x + w/2
	canvas.Line(int(x), int(y), int(x+w), int(y), lineStyle(style))
	canvas.Line(int(midX-4), int(y-h/2), int(midX-4), int(y+h/2), lineStyle(style))
	canvas.Line(int(midX+4), int(y-h/4), int(midX+4), int(y+h/4), lineStyle(style))
	canvas.Line(int(midX+4), int(y), int(x+w), int(y), lineStyle(style))
}

func drawInductor(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 40, 16)
	x, y := obj.Position.X, obj.Position.Y
	loops := 4
	r := h / 2
	step := w / float64(loops)
	for i := 0; i < loops; i++ {
		cx := x + float64(i)*step + step/2
		canvas.Arc(int(cx-step/2), int(y+h/2), int(step/2), int(r), 0, false, true, int(cx+step/2), int(y+h/2), lineStyle(style))
	}
}

func drawLED(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 20, 20)
	x, y := obj.Position.X, obj.Position.Y
	cx, cy := x+w/2, y+h/2
	xs := []int{int(x), int(x), int(x + w)}
	ys := []int{int(y), int(y + h), int(cy)}
	canvas.Polygon(xs, ys, fillStyle(style))
	canvas.Line(int(x+w), int(y), int(x+w), int(y+h), lineStyle(style))
}

func drawWire(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, _ := size(obj, 40, 0)
	x, y := obj.Position.X, obj.Position.Y
	canvas.Line(int(x), int(y), int(x+w), int(y), lineStyle(style))
}

func drawBlock(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 40, 40)
	canvas.Rect(int(obj.Position.X), int(obj.Position.Y), int(w), int(h), rectStyle(style))
}

func drawIncline(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 120, 60)
	x, y := obj.Position.X, obj.Position.Y
	xs := []int{int(x), int(x + w), int(x)}
	ys := []int{int(y + h), int(y + h), int(y)}
	canvas.Polygon(xs, ys, rectStyle(style))
}

func drawForceArrow(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, _ := size(obj, 60, 10)
	x, y := obj.Position.X, obj.Position.Y
	angleDeg := propFloat(obj, "direction_deg", 0)
	angle := angleDeg * math.Pi / 180
	tip := scene.Position{X: x + w*math.Cos(angle), Y: y + w*math.Sin(angle)}
	canvas.Line(int(x), int(y), int(tip.X), int(tip.Y), lineStyle(style))
	drawArrowhead(canvas, scene.Position{X: x, Y: y}, tip, style)
}

func drawArrowhead(canvas *svg.SVG, from, to scene.Position, style Style) {
	dx, dy := to.X-from.X, to.Y-from.Y
	angle := math.Atan2(dy, dx)
	size := 8.0
	left := scene.Position{X: to.X - size*math.Cos(angle-0.4), Y: to.Y - size*math.Sin(angle-0.4)}
	right := scene.Position{X: to.X - size*math.Cos(angle+0.4), Y: to.Y - size*math.Sin(angle+0.4)}
	xs := []int{int(to.X), int(left.X), int(right.X)}
	ys := []int{int(to.Y), int(left.Y), int(right.Y)}
	canvas.Polygon(xs, ys, fillStyle(style))
}

func drawPulley(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 24, 24)
	cx, cy := obj.Position.X+w/2, obj.Position.Y+h/2
	canvas.Circle(int(cx), int(cy), int(math.Min(w, h)/2), circleStyle(style))
}

func drawSpring(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 60, 16)
	x, y := obj.Position.X, obj.Position.Y
	coils := 6
	step := w / float64(coils)
	xs := make([]int, 0, coils+2)
	ys := make([]int, 0, coils+2)
	xs = append(xs, int(x))
	ys = append(ys, int(y+h/2))
	for i := 1; i <= coils; i++ {
		py := y
		if i%2 == 0 {
			py = y + h
		}
		xs = append(xs, int(x+float64(i)*step))
		ys = append(ys, int(py))
	}
	xs = append(xs, int(x+w))
	ys = append(ys, int(y+h/2))
	canvas.Polyline(xs, ys, lineStyle(style))
}

func drawLens(canvas *svg.SVG, obj *scene.Object, style Style) {
	_, h := size(obj, 10, 80)
	x, y := obj.Position.X, obj.Position.Y
	canvas.Ellipse(int(x), int(y+h/2), 6, int(h/2), fillStyle(style))
}

func drawRay(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, _ := size(obj, 60, 0)
	x, y := obj.Position.X, obj.Position.Y
	canvas.Line(int(x), int(y), int(x+w), int(y), lineStyle(style))
	drawArrowhead(canvas, scene.Position{X: x, Y: y}, scene.Position{X: x + w, Y: y}, style)
}

func drawMirror(canvas *svg.SVG, obj *scene.Object, style Style) {
	_, h := size(obj, 10, 80)
	x, y := obj.Position.X, obj.Position.Y
	canvas.Line(int(x), int(y), int(x), int(y+h), fmt.Sprintf("stroke:%s;stroke-width:%.1f", style.Stroke, style.StrokeWidth*2))
}

func drawAtom(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 24, 24)
	cx, cy := obj.Position.X+w/2, obj.Position.Y+h/2
	canvas.Circle(int(cx), int(cy), int(math.Min(w, h)/2), fillStyle(style))
	if obj.Label != "" {
		canvas.Text(int(cx), int(cy+4), obj.Label, labelStyle(style))
	}
}

func drawBond(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, _ := size(obj, 30, 0)
	x, y := obj.Position.X, obj.Position.Y
	order := int(propFloat(obj, "order", 1))
	if order < 1 {
		order = 1
	}
	spacing := 4.0
	for i := 0; i < order; i++ {
		offset := (float64(i) - float64(order-1)/2) * spacing
		canvas.Line(int(x), int(y+offset), int(x+w), int(y+offset), lineStyle(style))
	}
}

func drawPoint(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, _ := size(obj, 4, 4)
	canvas.Circle(int(obj.Position.X), int(obj.Position.Y), int(w/2)+1, fillStyle(style))
}

func drawLineSegment(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 40, 0)
	x, y := obj.Position.X, obj.Position.Y
	canvas.Line(int(x), int(y), int(x+w), int(y+h), lineStyle(style))
}

func drawAngleArc(canvas *svg.SVG, obj *scene.Object, style Style) {
	w, h := size(obj, 20, 20)
	x, y := obj.Position.X, obj.Position.Y
	r := int(math.Min(w, h))
	startDeg := propFloat(obj, "start_angle", 0)
	endDeg := propFloat(obj, "end_angle", 90)
	sx := x + float64(r)*math.Cos(startDeg*math.Pi/180)
	sy := y + float64(r)*math.Sin(startDeg*math.Pi/180)
	ex := x + float64(r)*math.Cos(endDeg*math.Pi/180)
	ey := y + float64(r)*math.Sin(endDeg*math.Pi/180)
	canvas.Arc(int(sx), int(sy), r, r, 0, false, endDeg-startDeg > 180, int(ex), int(ey), lineStyle(style))
}

func rectStyle(s Style) string {
	return fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.1f", s.Fill, s.Stroke, s.StrokeWidth)
}

func fillStyle(s Style) string {
	return fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.1f", s.Stroke, s.Stroke, s.StrokeWidth)
}

func circleStyle(s Style) string {
	return fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.1f", s.Stroke, s.StrokeWidth)
}

func lineStyle(s Style) string {
	return fmt.Sprintf("stroke:%s;stroke-width:%.1f;fill:none", s.Stroke, s.StrokeWidth)
}

func labelStyle(s Style) string {
	return fmt.Sprintf("text-anchor:middle;font-size:11px;font-family:%s;fill:%s", s.FontFamily, s.LabelColor)
}
