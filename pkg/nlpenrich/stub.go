package nlpenrich

import "context"

// StubAdapter represents an NLP tool the pipeline knows how to consult but
// does not bundle a local implementation for (stanza, scibert,
// chemdataextractor, mathbert, amr, dygie): each is an external model or
// service that a deployment wires in separately. Until one is registered
// under the real name, the stub reports ErrToolUnavailable so downstream
// stages degrade to a warning instead of failing.
type StubAdapter struct {
	NameValue string
	Reason    string
}

func (s StubAdapter) Name() string { return s.NameValue }

func (s StubAdapter) Extract(ctx context.Context, text string) (map[string]interface{}, error) {
	reason := s.Reason
	if reason == "" {
		reason = "no backend registered for this tool in this deployment"
	}
	return nil, &ErrToolUnavailable{Tool: s.NameValue, Reason: reason}
}

func init() {
	for _, name := range []string{"stanza", "scibert", "chemdataextractor", "mathbert", "amr", "dygie"} {
		Register(StubAdapter{NameValue: name})
	}
}
