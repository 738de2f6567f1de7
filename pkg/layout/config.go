// Package layout implements C8: a heuristic force-directed solver, an SMT
// solver contract with a native fallback implementation, and a symbolic
// verifier, dispatched by strategy.
package layout

import "fmt"

// Config tunes the heuristic solver's simulation. Field meanings and
// defaults mirror the force-directed embedder this package is grounded on.
type Config struct {
	MaxIterations      int
	MinObjectSpacing   float64
	GridQuantization   float64
	SpringConstant     float64
	RepulsionConstant  float64
	DampingFactor      float64
	StabilityThreshold float64
	InitialSpread      float64
	CanvasWidth        float64
	CanvasHeight       float64
}

// DefaultConfig returns reasonable defaults for a typical diagram (tens of
// objects, not hundreds).
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:      500,
		MinObjectSpacing:   12.0,
		GridQuantization:   5.0,
		SpringConstant:     0.08,
		RepulsionConstant:  800.0,
		DampingFactor:      0.85,
		StabilityThreshold: 0.05,
		InitialSpread:      150.0,
		CanvasWidth:        1200.0,
		CanvasHeight:       800.0,
	}
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("layout: MaxIterations must be positive")
	}
	if c.MinObjectSpacing < 0 {
		return fmt.Errorf("layout: MinObjectSpacing must not be negative")
	}
	if c.DampingFactor <= 0 || c.DampingFactor >= 1 {
		return fmt.Errorf("layout: DampingFactor must be in (0, 1)")
	}
	return nil
}
