package propgraph

import (
	"fmt"

	"github.com/dshills/diagramgen/pkg/nlpenrich"
)

// Build runs C2's deterministic graph-construction algorithm over an
// nlpenrich.Result: every tool payload is walked in a fixed order (openie,
// stanza, chemdataextractor, mathbert, amr, scibert, dygie) and merged into
// one PropertyGraph via Upsert, so the same Result always produces the same
// graph regardless of map iteration order. An empty or entirely-failed
// Result yields an empty, valid graph rather than an error, per spec's
// failure semantics for C2.
//
// The simplified five-type NodeType model (entity/quantity/constraint/
// event/relation) used throughout this module collapses the richer
// OBJECT/PARAMETER/CONCEPT/QUANTITY/FORCE taxonomy onto NodeEntity (for
// OBJECT/CONCEPT/FORCE) and NodeQuantity (for PARAMETER/QUANTITY); the
// original distinction survives in each node's Properties["subtype"].
func Build(result *nlpenrich.Result) (*PropertyGraph, error) {
	g := New()
	if result == nil {
		return g, nil
	}

	if payload, ok := result.Tools["openie"]; ok {
		if err := buildFromOpenIE(g, payload); err != nil {
			return nil, fmt.Errorf("propgraph: openie: %w", err)
		}
	}
	if payload, ok := result.Tools["stanza"]; ok {
		if err := buildFromStanza(g, payload); err != nil {
			return nil, fmt.Errorf("propgraph: stanza: %w", err)
		}
	}
	if payload, ok := result.Tools["chemdataextractor"]; ok {
		if err := buildFromChemDataExtractor(g, payload); err != nil {
			return nil, fmt.Errorf("propgraph: chemdataextractor: %w", err)
		}
	}
	if payload, ok := result.Tools["mathbert"]; ok {
		if err := buildFromMathBERT(g, payload); err != nil {
			return nil, fmt.Errorf("propgraph: mathbert: %w", err)
		}
	}
	if payload, ok := result.Tools["amr"]; ok {
		if err := buildFromAMR(g, payload); err != nil {
			return nil, fmt.Errorf("propgraph: amr: %w", err)
		}
	}
	if payload, ok := result.Tools["scibert"]; ok {
		if err := buildFromSciBERT(g, payload); err != nil {
			return nil, fmt.Errorf("propgraph: scibert: %w", err)
		}
	}
	if payload, ok := result.Tools["dygie"]; ok {
		if err := buildFromDyGIE(g, payload); err != nil {
			return nil, fmt.Errorf("propgraph: dygie: %w", err)
		}
	}

	return g, nil
}

func asSlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []map[string]string:
		out := make([]interface{}, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

func asStringMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case map[string]string:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out
	default:
		return nil
	}
}

func strField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func upsertEntity(g *PropertyGraph, label, tool string, properties map[string]interface{}) (string, error) {
	return g.Upsert(&Node{
		ID:         NormalizedLabel(label),
		Type:       NodeEntity,
		Label:      label,
		Properties: properties,
		Provenance: Provenance{Tool: tool, Confidence: 0.6},
		Sources:    []string{tool},
	})
}

// buildFromOpenIE implements step 1: for every (s, r, o) triple, upsert
// nodes s and o as OBJECT (NodeEntity) and add a RELATED_TO edge s->o
// labeled with the predicate.
func buildFromOpenIE(g *PropertyGraph, payload nlpenrich.ToolPayload) error {
	triples := asSlice(payload.Payload["triples"])
	for _, t := range triples {
		m := asStringMap(t)
		if m == nil {
			continue
		}
		subject := strField(m, "subject")
		predicate := strField(m, "predicate")
		object := strField(m, "object")
		if subject == "" || object == "" {
			continue
		}
		sID, err := upsertEntity(g, subject, "openie", nil)
		if err != nil {
			return err
		}
		oID, err := upsertEntity(g, object, "openie", nil)
		if err != nil {
			return err
		}
		if sID == oID {
			continue
		}
		if err := g.AddEdge(&Edge{
			ID:         fmt.Sprintf("%s-related_to-%s", sID, oID),
			Type:       EdgeConnects,
			From:       sID,
			To:         oID,
			Properties: map[string]interface{}{"label": predicate},
			Provenance: Provenance{Tool: "openie", Confidence: 0.5},
		}); err != nil {
			return err
		}
	}
	return nil
}

// stanzaTypeToNode maps Stanza's entity types onto this module's NodeType:
// QUANTITY -> NodeQuantity, FORCE -> NodeEntity (subtype "force"), anything
// else -> NodeEntity.
func stanzaTypeToNode(entityType string) (NodeType, string) {
	switch entityType {
	case "QUANTITY":
		return NodeQuantity, "quantity"
	case "FORCE":
		return NodeEntity, "force"
	default:
		return NodeEntity, "object"
	}
}

func buildFromStanza(g *PropertyGraph, payload nlpenrich.ToolPayload) error {
	entities := asSlice(payload.Payload["entities"])
	for _, e := range entities {
		m := asStringMap(e)
		if m == nil {
			continue
		}
		text := strField(m, "text")
		if text == "" {
			continue
		}
		nodeType, subtype := stanzaTypeToNode(strField(m, "type"))
		_, err := g.Upsert(&Node{
			ID:         NormalizedLabel(text),
			Type:       nodeType,
			Label:      text,
			Properties: map[string]interface{}{"subtype": subtype},
			Provenance: Provenance{Tool: "stanza", Confidence: 0.7},
			Sources:    []string{"stanza"},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// buildFromChemDataExtractor implements step 3: formulas become OBJECT
// nodes, bonds between them become edges.
func buildFromChemDataExtractor(g *PropertyGraph, payload nlpenrich.ToolPayload) error {
	formulas := asSlice(payload.Payload["formulas"])
	ids := make(map[string]string)
	for _, f := range formulas {
		formula, ok := f.(string)
		if !ok {
			m := asStringMap(f)
			formula = strField(m, "formula")
		}
		if formula == "" {
			continue
		}
		id, err := upsertEntity(g, formula, "chemdataextractor", map[string]interface{}{"subtype": "molecule"})
		if err != nil {
			return err
		}
		ids[formula] = id
	}

	bonds := asSlice(payload.Payload["bonds"])
	for _, b := range bonds {
		m := asStringMap(b)
		if m == nil {
			continue
		}
		from, to := strField(m, "from"), strField(m, "to")
		fromID, fOK := ids[from]
		toID, tOK := ids[to]
		if !fOK || !tOK || fromID == toID {
			continue
		}
		if err := g.AddEdge(&Edge{
			ID:         fmt.Sprintf("%s-bond-%s", fromID, toID),
			Type:       EdgeConnects,
			From:       fromID,
			To:         toID,
			Properties: map[string]interface{}{"order": strField(m, "order")},
			Provenance: Provenance{Tool: "chemdataextractor", Confidence: 0.7},
		}); err != nil {
			return err
		}
	}
	return nil
}

// buildFromMathBERT implements step 4: variables become PARAMETER nodes
// (NodeQuantity) with properties.type='variable'.
func buildFromMathBERT(g *PropertyGraph, payload nlpenrich.ToolPayload) error {
	variables := asSlice(payload.Payload["variables"])
	for _, v := range variables {
		name, ok := v.(string)
		if !ok {
			m := asStringMap(v)
			name = strField(m, "name")
		}
		if name == "" {
			continue
		}
		_, err := g.Upsert(&Node{
			ID:         NormalizedLabel(name),
			Type:       NodeQuantity,
			Label:      name,
			Properties: map[string]interface{}{"type": "variable"},
			Provenance: Provenance{Tool: "mathbert", Confidence: 0.6},
			Sources:    []string{"mathbert"},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// buildFromAMR implements step 5: concepts become CONCEPT nodes
// (NodeEntity, subtype "concept"), relation pairs become edges.
func buildFromAMR(g *PropertyGraph, payload nlpenrich.ToolPayload) error {
	concepts := asSlice(payload.Payload["concepts"])
	ids := make(map[string]string)
	for _, c := range concepts {
		name, ok := c.(string)
		if !ok {
			m := asStringMap(c)
			name = strField(m, "name")
		}
		if name == "" {
			continue
		}
		id, err := upsertEntity(g, name, "amr", map[string]interface{}{"subtype": "concept"})
		if err != nil {
			return err
		}
		ids[name] = id
	}

	relations := asSlice(payload.Payload["relations"])
	for _, r := range relations {
		m := asStringMap(r)
		if m == nil {
			continue
		}
		from, to := strField(m, "from"), strField(m, "to")
		fromID, fOK := ids[from]
		toID, tOK := ids[to]
		if !fOK || !tOK || fromID == toID {
			continue
		}
		if err := g.AddEdge(&Edge{
			ID:         fmt.Sprintf("%s-amr-%s", fromID, toID),
			Type:       EdgeConnects,
			From:       fromID,
			To:         toID,
			Properties: map[string]interface{}{"label": strField(m, "label")},
			Provenance: Provenance{Tool: "amr", Confidence: 0.6},
		}); err != nil {
			return err
		}
	}
	return nil
}

// buildFromSciBERT implements step 6: entities become OBJECT nodes
// carrying their embedding in properties.
func buildFromSciBERT(g *PropertyGraph, payload nlpenrich.ToolPayload) error {
	entities := asSlice(payload.Payload["entities"])
	for _, e := range entities {
		m := asStringMap(e)
		if m == nil {
			continue
		}
		text := strField(m, "text")
		if text == "" {
			continue
		}
		_, err := g.Upsert(&Node{
			ID:         NormalizedLabel(text),
			Type:       NodeEntity,
			Label:      text,
			Properties: map[string]interface{}{"embedding": m["embedding"]},
			Provenance: Provenance{Tool: "scibert", Confidence: 0.65},
			Sources:    []string{"scibert"},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// buildFromDyGIE implements step 7: identical merge logic to Stanza/AMR.
func buildFromDyGIE(g *PropertyGraph, payload nlpenrich.ToolPayload) error {
	entities := asSlice(payload.Payload["entities"])
	ids := make(map[string]string)
	for _, e := range entities {
		m := asStringMap(e)
		if m == nil {
			continue
		}
		text := strField(m, "text")
		if text == "" {
			continue
		}
		id, err := upsertEntity(g, text, "dygie", nil)
		if err != nil {
			return err
		}
		ids[text] = id
	}

	relations := asSlice(payload.Payload["relations"])
	for _, r := range relations {
		m := asStringMap(r)
		if m == nil {
			continue
		}
		from, to := strField(m, "from"), strField(m, "to")
		fromID, fOK := ids[from]
		toID, tOK := ids[to]
		if !fOK || !tOK || fromID == toID {
			continue
		}
		if err := g.AddEdge(&Edge{
			ID:         fmt.Sprintf("%s-dygie-%s", fromID, toID),
			Type:       EdgeConnects,
			From:       fromID,
			To:         toID,
			Properties: map[string]interface{}{"label": strField(m, "label")},
			Provenance: Provenance{Tool: "dygie", Confidence: 0.6},
		}); err != nil {
			return err
		}
	}
	return nil
}
