// Package trace implements the cross-cutting tracer (C11): a per-request
// structured record of every pipeline component's inputs, outputs, timing,
// and entity lifecycle events, independent of the ambient log/slog
// diagnostics stream.
package trace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ComponentSpan records one bracketed component execution.
type ComponentSpan struct {
	Name      string                 `json:"name"`
	StartedAt time.Time              `json:"started_at"`
	EndedAt   time.Time              `json:"ended_at,omitempty"`
	DurationMS int64                 `json:"duration_ms,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	Output    map[string]interface{} `json:"output,omitempty"`
	Warnings  []string               `json:"warnings,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// EntityEvent records the creation, modification, or removal of a domain
// object (node, scene object, layout pose) for post-hoc explanation.
type EntityEvent struct {
	At         time.Time `json:"at"`
	Component  string    `json:"component"`
	EntityID   string    `json:"entity_id"`
	Kind       string    `json:"kind"` // created, modified, removed
	Detail     string    `json:"detail,omitempty"`
}

// Record is the complete, persistable trace for one generation request.
type Record struct {
	RequestID string          `json:"request_id"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at,omitempty"`
	Spans     []ComponentSpan `json:"spans"`
	Events    []EntityEvent   `json:"events"`
	Summary   string          `json:"summary,omitempty"`
}

// Tracer is the per-request recorder. A nil *Tracer is safe to use: every
// method degrades to a no-op so call sites never need a presence check.
// Tracer is not safe for concurrent use by more than one goroutine at a
// time without external synchronization on top of the mutex it already
// holds internally for span bookkeeping.
type Tracer struct {
	mu     sync.Mutex
	record Record
	open   map[string]int // component name -> index into record.Spans, for in-flight spans
}

// New creates a Tracer for a fresh request, generating a request ID.
func New() *Tracer {
	return &Tracer{
		record: Record{RequestID: uuid.NewString(), StartedAt: now()},
		open:   make(map[string]int),
	}
}

// now is a single indirection point so tests can use a deterministic clock.
var now = func() time.Time { return time.Now() }

// RequestID returns the ID assigned to this trace, or "" for a nil tracer.
func (t *Tracer) RequestID() string {
	if t == nil {
		return ""
	}
	return t.record.RequestID
}

// StartComponent opens a bracketed span for a pipeline component.
func (t *Tracer) StartComponent(name string, input map[string]interface{}) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record.Spans = append(t.record.Spans, ComponentSpan{
		Name:      name,
		StartedAt: now(),
		Input:     input,
	})
	t.open[name] = len(t.record.Spans) - 1
}

// CompleteComponent closes the span opened by StartComponent with the same
// name, recording output and duration. If the component reported a warning
// or error via LogWarning/LogError during its run those are already
// attached; stageErr, if non-nil, is recorded as the span's terminal error.
func (t *Tracer) CompleteComponent(name string, output map[string]interface{}, stageErr error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.open[name]
	if !ok {
		slog.Warn("trace: CompleteComponent called without matching StartComponent", "component", name)
		return
	}
	span := &t.record.Spans[idx]
	span.EndedAt = now()
	span.DurationMS = span.EndedAt.Sub(span.StartedAt).Milliseconds()
	span.Output = output
	if stageErr != nil {
		span.Error = stageErr.Error()
	}
	delete(t.open, name)
}

// LogWarning attaches a warning to the currently-open span for component,
// or records it as an event of kind "warning" if no span is open.
func (t *Tracer) LogWarning(component, msg string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.open[component]; ok {
		t.record.Spans[idx].Warnings = append(t.record.Spans[idx].Warnings, msg)
		return
	}
	t.record.Events = append(t.record.Events, EntityEvent{
		At: now(), Component: component, Kind: "warning", Detail: msg,
	})
}

// LogEntityEvent records a single entity lifecycle event.
func (t *Tracer) LogEntityEvent(component, entityID, kind, detail string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record.Events = append(t.record.Events, EntityEvent{
		At: now(), Component: component, EntityID: entityID, Kind: kind, Detail: detail,
	})
}

// Finish closes the record and returns a copy. Any still-open spans are
// closed with their current state so a crashed or cancelled run still
// produces a usable partial trace.
func (t *Tracer) Finish() *Record {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, idx := range t.open {
		t.record.Spans[idx].EndedAt = now()
		t.record.Spans[idx].Warnings = append(t.record.Spans[idx].Warnings, "span closed implicitly at Finish")
		delete(t.open, name)
	}
	t.record.EndedAt = now()
	rec := t.record
	return &rec
}

// Save persists the trace record as JSON to dir/<request_id>_detailed_trace.json.
// A failure here is never fatal to the pipeline: callers should log and
// continue (see §4.11's "tracer failures degrade to a warning" rule).
func (r *Record) Save(dir string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("trace: cannot save a nil record")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("trace: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_detailed_trace.json", r.RequestID))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("trace: marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("trace: write %s: %w", path, err)
	}
	return path, nil
}

// Load reads a previously saved trace record back, for the "trace show"
// CLI subcommand.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trace: read %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("trace: unmarshal %s: %w", path, err)
	}
	return &rec, nil
}
