package scene

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/diagramgen/pkg/planner"
	"github.com/dshills/diagramgen/pkg/primitives"
	"github.com/dshills/diagramgen/pkg/propgraph"
)

// buildGeneric is shared by every domain interpreter: one Object per entity
// node, one Connector per edge in edge-ID order. A node's primitive type is resolved, in
// order, from an explicit Properties["entity_type"], then a C5 semantic
// nearest-neighbor lookup of the node's label against domain, falling back
// to defaultPrimitive when neither yields a match — this is the interpreter
// layer's only call into the primitive library (§4.5/§4.6).
func buildGeneric(g *propgraph.PropertyGraph, domain, defaultPrimitive string) *Scene {
	s := &Scene{}
	for _, n := range g.NodesByType(propgraph.NodeEntity) {
		primitiveType := resolvePrimitiveType(n, domain, defaultPrimitive)
		s.Objects = append(s.Objects, &Object{
			ID:            n.ID,
			PrimitiveType: primitiveType,
			Label:         n.Label,
			Layer:         LayerPrimitive,
			Properties:    n.Properties,
			SourceNodeID:  n.ID,
		})
	}
	edgeIDs := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Strings(edgeIDs)
	for _, id := range edgeIDs {
		e := g.Edges[id]
		s.Connectors = append(s.Connectors, &Connector{
			ID:    e.ID,
			From:  e.From,
			To:    e.To,
			Label: e.Type.String(),
			Layer: LayerConnector,
		})
	}
	return s
}

// resolvePrimitiveType picks the PrimitiveType for one entity node: an
// explicit Properties["entity_type"] wins outright; otherwise C5's
// in-memory semantic backend is asked to match the node's label against
// domain, and its top hit is used when available. Any failure (no backend,
// no match) falls back to defaultPrimitive rather than propagating, since
// primitive resolution is a best-effort enrichment, not a required input.
func resolvePrimitiveType(n *propgraph.Node, domain, defaultPrimitive string) string {
	if et, ok := n.Properties["entity_type"].(string); ok && et != "" {
		return et
	}
	hits, err := primitives.SemanticSearch(context.Background(), "in_memory", n.Label, domain, 1)
	if err != nil || len(hits) == 0 {
		return defaultPrimitive
	}
	return hits[0].Type
}

// planText safely extracts the original problem text a plan was built
// from; every domain interpreter's text-driven enrichment goes through this
// so a nil plan degrades to "no enrichment" rather than a panic.
func planText(plan *planner.Plan) string {
	if plan == nil {
		return ""
	}
	return plan.OriginalRequest
}

// ElectronicsInterpreter builds circuit diagrams: components plus wires.
type ElectronicsInterpreter struct{}

func (ElectronicsInterpreter) Domain() string { return "electronics" }

func (ElectronicsInterpreter) Interpret(g *propgraph.PropertyGraph, plan *planner.Plan) (*Scene, error) {
	s := buildGeneric(g, "electronics", "resistor")
	text := planText(plan)
	if isParallelPlateCapacitor(text) {
		addCapacitorPlateGeometry(s, text)
	}
	return s, nil
}

var dielectricLayerPattern = regexp.MustCompile(`(?i)(\d+)\s+dielectric`)

func isParallelPlateCapacitor(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "capacitor") && strings.Contains(lower, "plate")
}

// addCapacitorPlateGeometry synthesizes the two capacitor plates plus one
// dielectric rectangle per layer mentioned in the text, and ties them
// together with a BETWEEN constraint so C8 keeps the dielectric stack
// sandwiched between the plates rather than letting the solver scatter it.
func addCapacitorPlateGeometry(s *Scene, text string) {
	layers := 1
	if m := dielectricLayerPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			layers = n
		}
	}

	plateA := &Object{ID: "capacitor_plate_a", PrimitiveType: "capacitor_plate", Label: "Plate A", Layer: LayerPrimitive}
	plateB := &Object{ID: "capacitor_plate_b", PrimitiveType: "capacitor_plate", Label: "Plate B", Layer: LayerPrimitive}
	s.Objects = append(s.Objects, plateA, plateB)

	between := []string{plateA.ID, plateB.ID}
	for i := 0; i < layers; i++ {
		id := fmt.Sprintf("dielectric_%d", i)
		s.Objects = append(s.Objects, &Object{
			ID:            id,
			PrimitiveType: "rectangle",
			Label:         fmt.Sprintf("Dielectric %d", i+1),
			Layer:         LayerFill,
			Properties:    map[string]interface{}{"role": "dielectric"},
		})
		between = append(between, id)
	}
	s.Constraints = append(s.Constraints, Constraint{
		ID:        "capacitor_between",
		Type:      "BETWEEN",
		ObjectIDs: between,
	})
}

// MechanicsInterpreter builds free-body and kinematics diagrams.
type MechanicsInterpreter struct{}

func (MechanicsInterpreter) Domain() string { return "mechanics" }

func (MechanicsInterpreter) Interpret(g *propgraph.PropertyGraph, plan *planner.Plan) (*Scene, error) {
	s := buildGeneric(g, "mechanics", "block")
	if plan != nil && plan.Temporal != nil && plan.Temporal.HasMultipleStates {
		for _, o := range s.Objects {
			if o.Properties == nil {
				o.Properties = make(map[string]interface{})
			}
			o.Properties["temporal_labels"] = plan.Temporal.StateLabels
		}
	}
	text := planText(plan)
	if mass, angle, ok := extractInclineParameters(text); ok {
		addInclineForces(s, mass, angle, extractFrictionCoefficient(text))
	}
	return s, nil
}

var (
	massPattern     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kg`)
	anglePattern    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:degree|deg)s?\b|(\d+(?:\.\d+)?)\s*°`)
	frictionPattern = regexp.MustCompile(`(?i)(?:friction coefficient|coefficient of friction|friction)\D{0,12}(\d+(?:\.\d+)?)`)
)

func extractInclineParameters(text string) (mass, angle float64, ok bool) {
	if !strings.Contains(strings.ToLower(text), "incline") {
		return 0, 0, false
	}
	mm := massPattern.FindStringSubmatch(text)
	am := anglePattern.FindStringSubmatch(text)
	if mm == nil || am == nil {
		return 0, 0, false
	}
	mass, _ = strconv.ParseFloat(mm[1], 64)
	angleStr := am[1]
	if angleStr == "" {
		angleStr = am[2]
	}
	angle, _ = strconv.ParseFloat(angleStr, 64)
	return mass, angle, true
}

func extractFrictionCoefficient(text string) float64 {
	if m := frictionPattern.FindStringSubmatch(text); m != nil {
		if mu, err := strconv.ParseFloat(m[1], 64); err == nil {
			return mu
		}
	}
	return 0
}

const gravityAccelMetersPerSecondSquared = 9.8

// addInclineForces synthesizes the mass block, the inclined surface, and
// the three force arrows (weight, normal, friction) of a block-on-incline
// free-body diagram. Angles follow the standard math convention (0 deg =
// east, increasing counter-clockwise): weight always points straight down
// at 270 deg; the normal force is perpendicular to the slope at
// 90-angleDeg; friction acts up the slope at 180-angleDeg. This is the same
// convention C7's Newton-balance check decomposes against.
func addInclineForces(s *Scene, massKg, angleDeg, mu float64) {
	weight := massKg * gravityAccelMetersPerSecondSquared
	normal := weight * math.Cos(angleDeg*math.Pi/180.0)
	friction := mu * normal

	mass := &Object{ID: "incline_mass", PrimitiveType: "mass", Label: "Mass", Layer: LayerPrimitive,
		Properties: map[string]interface{}{"mass_kg": massKg}}
	surface := &Object{ID: "incline_surface", PrimitiveType: "line_segment", Label: "Incline", Layer: LayerLines,
		Properties: map[string]interface{}{"angle_deg": angleDeg}}
	s.Objects = append(s.Objects, mass, surface)

	s.Objects = append(s.Objects,
		forceArrow("force_weight", "Weight", weight, 270),
		forceArrow("force_normal", "Normal", normal, 90-angleDeg),
		forceArrow("force_friction", "Friction", friction, 180-angleDeg),
	)
}

func forceArrow(id, label string, magnitude, directionDeg float64) *Object {
	return &Object{
		ID:            id,
		PrimitiveType: "force_arrow",
		Label:         label,
		Layer:         LayerArrows,
		Properties:    map[string]interface{}{"magnitude": magnitude, "direction_deg": directionDeg},
	}
}

// OpticsInterpreter builds ray diagrams.
type OpticsInterpreter struct{}

func (OpticsInterpreter) Domain() string { return "optics" }

func (OpticsInterpreter) Interpret(g *propgraph.PropertyGraph, plan *planner.Plan) (*Scene, error) {
	s := buildGeneric(g, "optics", "lens")
	text := planText(plan)
	if f, ok := extractFocalLength(text); ok {
		addLensRayDiagram(s, text, f)
	}
	return s, nil
}

var (
	focalPattern      = regexp.MustCompile(`(?i)focal length\D{0,12}(\d+(?:\.\d+)?)`)
	objectDistPattern = regexp.MustCompile(`(?i)object\D{0,15}?(\d+(?:\.\d+)?)\s*(?:cm|mm|m)\b`)
	imageDistPattern  = regexp.MustCompile(`(?i)image\D{0,15}?(\d+(?:\.\d+)?)\s*(?:cm|mm|m)\b`)
)

func extractFocalLength(text string) (float64, bool) {
	if !strings.Contains(strings.ToLower(text), "lens") {
		return 0, false
	}
	m := focalPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	return f, err == nil
}

// addLensRayDiagram synthesizes the lens plus an object marker and an image
// marker connected to it by two ray lines, and fills in the lens equation's
// three distances so C7's lens_equation check has something to verify.
// When the text states no object distance it defaults to twice the focal
// length; when it states no image distance, the image distance is solved
// from the thin-lens equation (or set equal to the object distance when
// the object sits at the focal point).
func addLensRayDiagram(s *Scene, text string, focalLength float64) {
	objectDistance := 2 * focalLength
	if m := objectDistPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			objectDistance = v
		}
	}
	imageDistance := objectDistance
	if m := imageDistPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			imageDistance = v
		}
	} else if objectDistance != focalLength {
		imageDistance = (focalLength * objectDistance) / (objectDistance - focalLength)
	}

	lens := &Object{ID: "lens_main", PrimitiveType: "lens", Label: "Lens", Layer: LayerPrimitive,
		Properties: map[string]interface{}{
			"focal_length": focalLength, "object_distance": objectDistance, "image_distance": imageDistance,
		}}
	objMarker := &Object{ID: "object_marker", PrimitiveType: "object_marker", Label: "Object", Layer: LayerShapes}
	imgMarker := &Object{ID: "image_marker", PrimitiveType: "object_marker", Label: "Image", Layer: LayerShapes}
	s.Objects = append(s.Objects, lens, objMarker, imgMarker)

	s.Connectors = append(s.Connectors,
		&Connector{ID: "ray_to_lens", From: objMarker.ID, To: lens.ID, Label: "ray", Layer: LayerLines},
		&Connector{ID: "ray_to_image", From: lens.ID, To: imgMarker.ID, Label: "ray", Layer: LayerLines},
	)
}

// ChemistryInterpreter builds reaction/structure diagrams.
type ChemistryInterpreter struct{}

func (ChemistryInterpreter) Domain() string { return "chemistry" }

func (ChemistryInterpreter) Interpret(g *propgraph.PropertyGraph, plan *planner.Plan) (*Scene, error) {
	return buildGeneric(g, "chemistry", "atom"), nil
}

// GeometryInterpreter builds geometric figures.
type GeometryInterpreter struct{}

func (GeometryInterpreter) Domain() string { return "geometry" }

func (GeometryInterpreter) Interpret(g *propgraph.PropertyGraph, plan *planner.Plan) (*Scene, error) {
	return buildGeneric(g, "geometry", "point"), nil
}

// GenericInterpreter is the fallback for an unrecognized domain.
type GenericInterpreter struct{}

func (GenericInterpreter) Domain() string { return "generic" }

func (GenericInterpreter) Interpret(g *propgraph.PropertyGraph, plan *planner.Plan) (*Scene, error) {
	if g == nil {
		return nil, fmt.Errorf("scene: nil graph")
	}
	return buildGeneric(g, "generic", "point"), nil
}
