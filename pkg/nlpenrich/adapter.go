// Package nlpenrich implements C1, the NLP Enricher: a bounded fan-out over
// pluggable NLP tool adapters that annotate a problem statement with
// entities, dependencies, numeric quantities, and temporal ordering before
// the property graph is built.
package nlpenrich

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ToolPayload is one adapter's raw extraction output, keyed loosely so each
// adapter can emit whatever shape its underlying tool naturally produces;
// C2's graph builder interprets each Tool+Payload pair on its own terms.
type ToolPayload struct {
	Tool    string                 `json:"tool"`
	Payload map[string]interface{} `json:"payload"`
}

// Adapter wraps one external NLP tool (or a local heuristic fallback).
type Adapter interface {
	// Name identifies the adapter, used as the map key in Result.Tools and
	// in Config.EnabledTools.
	Name() string
	// Extract runs the tool against text. A non-nil error means the tool
	// failed or is unavailable; Enrich treats this as non-fatal.
	Extract(ctx context.Context, text string) (map[string]interface{}, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry. Call from an init()
// func in the package that implements a concrete adapter.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[a.Name()] = a
}

// Get looks up a registered adapter by name.
func Get(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[name]
	return a, ok
}

// List returns the names of all registered adapters, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrToolUnavailable signals a tool that could not run at all (missing
// credential, missing binary, etc), distinct from a tool that ran and
// returned an unusable result.
type ErrToolUnavailable struct {
	Tool   string
	Reason string
}

func (e *ErrToolUnavailable) Error() string {
	return fmt.Sprintf("nlpenrich: tool %s unavailable: %s", e.Tool, e.Reason)
}
