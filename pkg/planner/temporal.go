package planner

import "regexp"

// TemporalContext captures whether a problem describes a sequence of
// distinct states (e.g. "before the collision" / "after the collision")
// rather than a single static configuration, per spec §4.4.1.
type TemporalContext struct {
	HasMultipleStates bool
	StateLabels       []string
}

var temporalPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"initial_final", regexp.MustCompile(`(?i)\binitial(ly)?\b.*\bfinal(ly)?\b|\bbefore\b.*\bafter\b`)},
	{"then", regexp.MustCompile(`(?i)\bthen\b`)},
	{"collide_and_stick", regexp.MustCompile(`(?i)\bcollide[s]?\b.*\bstick[s]?\b`)},
}

// NewTemporalAnalyzer returns a TemporalAnalyzer; it holds no state and
// could be a free function, but is a type to match the other planner
// stages' shape and allow future configuration (e.g. custom patterns).
type TemporalAnalyzer struct{}

// Analyze scans text for phrasing that implies more than one time-ordered
// state of the system.
func (TemporalAnalyzer) Analyze(text string) (*TemporalContext, error) {
	ctx := &TemporalContext{}
	for _, p := range temporalPatterns {
		if p.re.MatchString(text) {
			ctx.HasMultipleStates = true
			ctx.StateLabels = append(ctx.StateLabels, p.label)
		}
	}
	return ctx, nil
}
