package nlpenrich

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each individual adapter call so one slow external
// tool cannot stall the whole enrichment phase.
const DefaultTimeout = 30 * time.Second

// Result aggregates every adapter's output plus the set of tools that
// failed or were unavailable, by tool name.
type Result struct {
	Tools    map[string]ToolPayload
	Failures map[string]string
}

// Enrich runs every adapter named in enabledTools concurrently, bounded by
// per-tool timeouts, and never fails the overall call: a tool failure is
// recorded in Result.Failures and the remaining tools still run to
// completion. This matches the pipeline's rule that NLP tooling is a set of
// independent, individually-optional collaborators (spec §4.1/§7).
func Enrich(ctx context.Context, text string, enabledTools []string) (*Result, error) {
	res := &Result{
		Tools:    make(map[string]ToolPayload),
		Failures: make(map[string]string),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, name := range enabledTools {
		name := name
		adapter, ok := Get(name)
		if !ok {
			mu.Lock()
			res.Failures[name] = "no adapter registered"
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			toolCtx, cancel := context.WithTimeout(gctx, DefaultTimeout)
			defer cancel()

			payload, err := adapter.Extract(toolCtx, text)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures[name] = err.Error()
				return nil // isolated failure: never abort the group
			}
			res.Tools[name] = ToolPayload{Tool: name, Payload: payload}
			return nil
		})
	}

	// Every tool goroutine above returns nil, recording its failure in res
	// instead, so errgroup.Wait returns nil here in practice; the check
	// only guards against a future goroutine that returns an error.
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}
