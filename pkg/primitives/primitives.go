// Package primitives implements C5, the Primitive Library: a small catalog
// of reusable diagram symbols (resistor, block, ray, vector, ...) that the
// scene builder looks up by domain and keyword, with an optional semantic
// search fallback using embedding similarity.
package primitives

import (
	"context"
	"math"
	"sort"
	"strings"
)

// Primitive is one entry in the library: a named, domain-tagged symbol
// definition the renderer knows how to draw (see pkg/render's glyph
// registry, keyed by Primitive.Type).
type Primitive struct {
	Type        string   `json:"type"`
	Domain      string   `json:"domain"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
	DefaultW    float64  `json:"default_w"`
	DefaultH    float64  `json:"default_h"`
}

// Backend is a swappable primitive lookup strategy: the built-in in-memory
// catalog, or a vector-DB-backed store in a larger deployment.
type Backend interface {
	Search(ctx context.Context, query string, domain string, limit int) ([]Primitive, error)
	Name() string
}

var (
	backends = make(map[string]Backend)
)

// Register adds a backend under its Name().
func Register(b Backend) { backends[b.Name()] = b }

// Get looks up a backend by name.
func Get(name string) (Backend, bool) { b, ok := backends[name]; return b, ok }

func init() {
	Register(&InMemoryBackend{catalog: builtinCatalog})
}

// InMemoryBackend is the default, always-available backend: exact keyword
// match first, then cosine-similarity over a bag-of-words embedding as a
// fallback so an unfamiliar phrasing still finds a reasonable primitive.
type InMemoryBackend struct {
	catalog []Primitive
}

func (b *InMemoryBackend) Name() string { return "in_memory" }

func (b *InMemoryBackend) Search(ctx context.Context, query string, domain string, limit int) ([]Primitive, error) {
	query = strings.ToLower(query)
	var domainMatches, others []Primitive
	for _, p := range b.catalog {
		if domain != "" && !strings.EqualFold(p.Domain, domain) {
			others = append(others, p)
			continue
		}
		domainMatches = append(domainMatches, p)
	}

	scored := make([]scoredPrimitive, 0, len(domainMatches)+len(others))
	for _, p := range append(append([]Primitive{}, domainMatches...), others...) {
		scored = append(scored, scoredPrimitive{p: p, score: keywordScore(query, p) + cosineScore(query, p)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if limit <= 0 || limit > len(scored) {
		limit = len(scored)
	}
	out := make([]Primitive, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, scored[i].p)
	}
	return out, nil
}

type scoredPrimitive struct {
	p     Primitive
	score float64
}

func keywordScore(query string, p Primitive) float64 {
	score := 0.0
	if strings.Contains(query, strings.ToLower(p.Type)) {
		score += 5.0
	}
	for _, kw := range p.Keywords {
		if strings.Contains(query, strings.ToLower(kw)) {
			score += 2.0
		}
	}
	return score
}

// cosineScore computes cosine similarity between two bag-of-words vectors
// built from whitespace tokens. There is no vector-index library anywhere
// in the available dependency set for this kind of small, in-process
// catalog lookup, so a direct stdlib-math implementation is used here
// rather than reaching for a heavier embedding service for ~15 entries.
func cosineScore(query string, p Primitive) float64 {
	qTokens := tokenize(query)
	pTokens := tokenize(strings.Join(append([]string{p.Type, p.Description}, p.Keywords...), " "))
	if len(qTokens) == 0 || len(pTokens) == 0 {
		return 0
	}
	vocab := make(map[string]bool)
	for t := range qTokens {
		vocab[t] = true
	}
	for t := range pTokens {
		vocab[t] = true
	}

	var dot, qNorm, pNorm float64
	for t := range vocab {
		qv := float64(qTokens[t])
		pv := float64(pTokens[t])
		dot += qv * pv
		qNorm += qv * qv
		pNorm += pv * pv
	}
	if qNorm == 0 || pNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(qNorm) * math.Sqrt(pNorm))
}

func tokenize(s string) map[string]int {
	out := make(map[string]int)
	for _, t := range strings.Fields(strings.ToLower(s)) {
		out[t]++
	}
	return out
}

// SemanticSearch is the entrypoint the scene builder calls: it delegates to
// the named backend, defaulting to the built-in in-memory catalog.
func SemanticSearch(ctx context.Context, backendName, query, domain string, limit int) ([]Primitive, error) {
	if backendName == "" {
		backendName = "in_memory"
	}
	b, ok := Get(backendName)
	if !ok {
		b, _ = Get("in_memory")
	}
	return b.Search(ctx, query, domain, limit)
}
