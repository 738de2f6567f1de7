package nlpenrich

import (
	"context"
	"regexp"
	"strings"
)

// OpenIEAdapter is a best-effort local stand-in for an OpenIE-style
// subject-verb-object triple extractor. It is not a trained model: it
// splits on clause boundaries and a small set of verb patterns. It exists
// so the enrichment phase has at least one always-available local tool
// when no external NLP service is configured.
type OpenIEAdapter struct{}

func (OpenIEAdapter) Name() string { return "openie" }

var sentenceSplit = regexp.MustCompile(`[.!?]+\s*`)
var svoPattern = regexp.MustCompile(`(?i)^(.*?)\s+(is|are|has|have|connects to|connected to|equals|moves at|exerts)\s+(.*)$`)

func (OpenIEAdapter) Extract(ctx context.Context, text string) (map[string]interface{}, error) {
	var triples []map[string]string
	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if m := svoPattern.FindStringSubmatch(sentence); m != nil {
			triples = append(triples, map[string]string{
				"subject":   strings.TrimSpace(m[1]),
				"predicate": strings.TrimSpace(m[2]),
				"object":    strings.TrimSpace(m[3]),
			})
		}
	}
	return map[string]interface{}{"triples": triples}, nil
}

func init() {
	Register(OpenIEAdapter{})
}
