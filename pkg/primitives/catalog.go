package primitives

// builtinCatalog ships the initial set of primitives the renderer knows how
// to draw. Each Type here must have a matching glyph function registered
// in pkg/render.
var builtinCatalog = []Primitive{
	{Type: "resistor", Domain: "electronics", Keywords: []string{"resistance", "ohm"}, Description: "zigzag resistor symbol", DefaultW: 40, DefaultH: 16},
	{Type: "capacitor", Domain: "electronics", Keywords: []string{"capacitance", "farad"}, Description: "parallel plate capacitor symbol", DefaultW: 20, DefaultH: 24},
	{Type: "battery", Domain: "electronics", Keywords: []string{"source", "voltage", "cell"}, Description: "battery cell symbol", DefaultW: 24, DefaultH: 28},
	{Type: "inductor", Domain: "electronics", Keywords: []string{"coil", "henry"}, Description: "coiled inductor symbol", DefaultW: 40, DefaultH: 16},
	{Type: "led", Domain: "electronics", Keywords: []string{"diode", "light"}, Description: "light-emitting diode symbol", DefaultW: 20, DefaultH: 20},
	{Type: "wire", Domain: "electronics", Keywords: []string{"connection", "lead"}, Description: "straight connecting wire", DefaultW: 0, DefaultH: 0},

	{Type: "block", Domain: "mechanics", Keywords: []string{"mass", "body"}, Description: "rectangular rigid body", DefaultW: 40, DefaultH: 40},
	{Type: "incline", Domain: "mechanics", Keywords: []string{"ramp", "slope"}, Description: "inclined plane", DefaultW: 120, DefaultH: 60},
	{Type: "force_arrow", Domain: "mechanics", Keywords: []string{"force", "vector", "arrow"}, Description: "labeled force arrow", DefaultW: 60, DefaultH: 10},
	{Type: "mass", Domain: "mechanics", Keywords: []string{"block", "weight"}, Description: "mass block", DefaultW: 40, DefaultH: 40},
	{Type: "pulley", Domain: "mechanics", Keywords: []string{"wheel"}, Description: "circular pulley", DefaultW: 24, DefaultH: 24},
	{Type: "spring", Domain: "mechanics", Keywords: []string{"coil"}, Description: "coiled spring", DefaultW: 60, DefaultH: 16},

	{Type: "lens", Domain: "optics", Keywords: []string{"convex", "concave"}, Description: "thin lens symbol", DefaultW: 10, DefaultH: 80},
	{Type: "ray", Domain: "optics", Keywords: []string{"light", "beam"}, Description: "light ray line with arrowhead", DefaultW: 0, DefaultH: 0},
	{Type: "mirror", Domain: "optics", Keywords: []string{"reflect"}, Description: "flat mirror symbol", DefaultW: 10, DefaultH: 80},

	{Type: "atom", Domain: "chemistry", Keywords: []string{"element"}, Description: "labeled atom circle", DefaultW: 24, DefaultH: 24},
	{Type: "bond", Domain: "chemistry", Keywords: []string{"single", "double", "triple"}, Description: "chemical bond line", DefaultW: 0, DefaultH: 0},

	{Type: "point", Domain: "geometry", Keywords: []string{"vertex"}, Description: "labeled point", DefaultW: 4, DefaultH: 4},
	{Type: "line_segment", Domain: "geometry", Keywords: []string{"edge"}, Description: "line between two points", DefaultW: 0, DefaultH: 0},
	{Type: "angle_arc", Domain: "geometry", Keywords: []string{"angle"}, Description: "labeled angle arc", DefaultW: 20, DefaultH: 20},
}
