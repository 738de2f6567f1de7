package render

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/dshills/diagramgen/pkg/scene"
)

// Options configures SVG emission, the generalized analogue of the
// teacher's SVGOptions.
type Options struct {
	Width      int
	Height     int
	Margin     int
	ShowLabels bool
	Title      string
	Theme      *Theme
}

// DefaultOptions returns sensible rendering defaults.
func DefaultOptions() Options {
	return Options{
		Width:      1200,
		Height:     900,
		Margin:     40,
		ShowLabels: true,
		Title:      "",
		Theme:      DefaultTheme(),
	}
}

// Render emits an SVG for a positioned scene in RenderLayer order. It never
// returns an error for a non-nil scene with no objects: the renderer's job
// per spec is to always produce *some* SVG, even an empty-scene one, so a
// timeout or upstream failure never blocks the final artifact.
func Render(sc *scene.Scene, opts Options) ([]byte, error) {
	if opts.Width <= 0 {
		opts.Width = 1200
	}
	if opts.Height <= 0 {
		opts.Height = 900
	}
	theme := opts.Theme
	if theme == nil {
		theme = DefaultTheme()
	}

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, fmt.Sprintf("fill:%s", theme.Background))

	if sc == nil {
		drawEmptyNotice(canvas, opts, "no scene available")
		canvas.End()
		return buf.Bytes(), nil
	}

	style := Style{
		Stroke:      theme.ColorFor(sc.Domain),
		Fill:        theme.FillColor,
		LabelColor:  theme.LabelColor,
		StrokeWidth: theme.StrokeWidth,
		FontFamily:  theme.FontFamily,
	}

	drawLayer(canvas, sc, scene.LayerLines, style, opts.ShowLabels)

	if opts.Title != "" {
		canvas.Text(opts.Width/2, 24, opts.Title,
			fmt.Sprintf("text-anchor:middle;font-size:18px;font-weight:bold;font-family:%s;fill:%s", theme.FontFamily, theme.LabelColor))
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveToFile renders and writes the SVG to disk with 0644 permissions.
func SaveToFile(sc *scene.Scene, path string, opts Options) error {
	data, err := Render(sc, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// drawLayer walks objects and connectors together in RenderLayer order so
// that, e.g., connectors drawn on LayerLines appear beneath labels on
// LayerLabels regardless of input order.
func drawLayer(canvas *svg.SVG, sc *scene.Scene, connectorLayer scene.RenderLayer, style Style, showLabels bool) {
	type drawable struct {
		layer scene.RenderLayer
		order int
		draw  func()
	}
	var items []drawable

	for i, o := range sc.Objects {
		o := o
		items = append(items, drawable{layer: o.Layer, order: i, draw: func() {
			GlyphFor(o.PrimitiveType)(canvas, o, style)
		}})
		if showLabels && o.Label != "" {
			o := o
			items = append(items, drawable{layer: scene.LayerLabels, order: i, draw: func() {
				canvas.Text(int(o.Position.X), int(o.Position.Y)-10, o.Label, labelStyle(style))
			}})
		}
	}

	for i, c := range sc.Connectors {
		c := c
		fromPos, toPos, ok := connectorPositions(sc, c)
		if !ok {
			continue
		}
		layer := c.Layer
		if layer == 0 {
			layer = connectorLayer
		}
		items = append(items, drawable{layer: layer, order: i, draw: func() {
			canvas.Line(int(fromPos.X), int(fromPos.Y), int(toPos.X), int(toPos.Y), lineStyle(style))
		}})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].layer != items[j].layer {
			return items[i].layer < items[j].layer
		}
		return items[i].order < items[j].order
	})
	for _, it := range items {
		it.draw()
	}
}

func connectorPositions(sc *scene.Scene, c *scene.Connector) (scene.Position, scene.Position, bool) {
	var from, to scene.Position
	var fromOK, toOK bool
	for _, o := range sc.Objects {
		if o.ID == c.From {
			from, fromOK = o.Position, true
		}
		if o.ID == c.To {
			to, toOK = o.Position, true
		}
	}
	return from, to, fromOK && toOK
}

func drawEmptyNotice(canvas *svg.SVG, opts Options, msg string) {
	canvas.Text(opts.Width/2, opts.Height/2, msg,
		"text-anchor:middle;font-size:14px;fill:#888888;font-family:sans-serif")
}
