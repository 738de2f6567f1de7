package render

import (
	"strings"
	"testing"

	"github.com/dshills/diagramgen/pkg/scene"
)

func sampleScene() *scene.Scene {
	return &scene.Scene{
		Domain: "electronics",
		Objects: []*scene.Object{
			{ID: "b1", PrimitiveType: "battery", Label: "V1", Position: scene.Position{X: 50, Y: 50}, Width: 24, Height: 28, Layer: scene.LayerPrimitive},
			{ID: "r1", PrimitiveType: "resistor", Label: "R1", Position: scene.Position{X: 150, Y: 50}, Width: 40, Height: 16, Layer: scene.LayerPrimitive},
		},
		Connectors: []*scene.Connector{
			{ID: "w1", From: "b1", To: "r1"},
		},
	}
}

func TestRender_ProducesValidSVGStructure(t *testing.T) {
	data, err := Render(sampleScene(), DefaultOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatalf("expected well-formed svg envelope, got: %s", out)
	}
	if !strings.Contains(out, "V1") || !strings.Contains(out, "R1") {
		t.Fatalf("expected object labels in output, got: %s", out)
	}
}

func TestRender_EmptySceneStillProducesSVG(t *testing.T) {
	data, err := Render(&scene.Scene{}, DefaultOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("expected svg envelope for empty scene")
	}
}

func TestRender_NilSceneProducesPlaceholder(t *testing.T) {
	data, err := Render(nil, DefaultOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(data), "no scene available") {
		t.Fatalf("expected placeholder text for nil scene, got: %s", data)
	}
}

func TestGlyphFor_FallsBackToGenericBox(t *testing.T) {
	fn := GlyphFor("unregistered_primitive_type")
	if fn == nil {
		t.Fatal("expected a non-nil fallback glyph function")
	}
}

func TestListGlyphs_IncludesCatalogTypes(t *testing.T) {
	names := ListGlyphs()
	want := []string{"resistor", "capacitor", "atom", "point"}
	for _, w := range want {
		found := false
		for _, n := range names {
			if n == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected glyph registry to contain %q, got %v", w, names)
		}
	}
}

func TestTheme_ColorForUnknownDomainFallsBackToStroke(t *testing.T) {
	theme := DefaultTheme()
	theme.DomainColors = map[string]string{"electronics": "#111111"}
	if c := theme.ColorFor("unknown_domain"); c != theme.StrokeColor {
		t.Fatalf("expected fallback to stroke color, got %s", c)
	}
	if c := theme.ColorFor("electronics"); c != "#111111" {
		t.Fatalf("expected domain override, got %s", c)
	}
}
