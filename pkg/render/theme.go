// Package render implements C9, the Renderer: it walks a positioned Scene
// and emits SVG, one glyph function per PrimitiveType, in RenderLayer order.
package render

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Theme is a named palette plus stroke defaults, the rendering analogue of
// the teacher's ThemePack (pkg/themes/types.go): loaded from YAML, resolved
// by domain, immutable after load.
type Theme struct {
	Name         string            `yaml:"name" json:"name"`
	Background   string            `yaml:"background" json:"background"`
	StrokeColor  string            `yaml:"stroke_color" json:"stroke_color"`
	FillColor    string            `yaml:"fill_color" json:"fill_color"`
	LabelColor   string            `yaml:"label_color" json:"label_color"`
	StrokeWidth  float64           `yaml:"stroke_width" json:"stroke_width"`
	FontFamily   string            `yaml:"font_family" json:"font_family"`
	DomainColors map[string]string `yaml:"domain_colors" json:"domain_colors"`
}

// DefaultTheme returns the theme used when no theme pack is loaded.
func DefaultTheme() *Theme {
	return &Theme{
		Name:        "default",
		Background:  "#ffffff",
		StrokeColor: "#1a1a1a",
		FillColor:   "#f0f0f0",
		LabelColor:  "#1a1a1a",
		StrokeWidth: 1.5,
		FontFamily:  "sans-serif",
		DomainColors: map[string]string{
			"electronics": "#2563eb",
			"mechanics":   "#b45309",
			"optics":      "#7c3aed",
			"chemistry":   "#16a34a",
			"geometry":    "#475569",
		},
	}
}

// LoadThemeFromFile loads a theme from a YAML file, falling back to
// DefaultTheme's fields for anything left unset.
func LoadThemeFromFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: reading theme file: %w", err)
	}
	theme := DefaultTheme()
	if err := yaml.Unmarshal(data, theme); err != nil {
		return nil, fmt.Errorf("render: parsing theme YAML: %w", err)
	}
	if theme.Name == "" {
		return nil, fmt.Errorf("render: theme name is required")
	}
	return theme, nil
}

// ColorFor resolves the stroke color for a domain, falling back to the
// theme's default stroke color when the domain has no override.
func (t *Theme) ColorFor(domain string) string {
	if t == nil {
		return DefaultTheme().ColorFor(domain)
	}
	if c, ok := t.DomainColors[domain]; ok {
		return c
	}
	return t.StrokeColor
}

// sortedDomainNames enumerates a theme's domain palette deterministically.
func (t *Theme) sortedDomainNames() []string {
	names := make([]string, 0, len(t.DomainColors))
	for d := range t.DomainColors {
		names = append(names, d)
	}
	sort.Strings(names)
	return names
}
