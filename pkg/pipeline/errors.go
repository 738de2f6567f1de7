package pipeline

import "errors"

// The sentinel errors below implement §7's error taxonomy. Each phase
// wraps its own failure in the category that determines how the
// orchestrator reacts: InputError aborts the request outright; everything
// else degrades to a warning and the pipeline continues with whatever
// partial result it has, except Fatal which aborts like InputError but
// signals internal state corruption rather than a bad request.
var (
	// ErrInputError means the problem statement itself is unusable (empty,
	// non-textual). The pipeline aborts and returns no SVG.
	ErrInputError = errors.New("pipeline: input error")

	// ErrToolUnavailable means an optional external dependency (SMT
	// library, VLM, ontology stack) is not configured. The owning phase
	// becomes a no-op and the condition is recorded as a warning.
	ErrToolUnavailable = errors.New("pipeline: tool unavailable")

	// ErrToolFailure means an individual tool or solver call raised. It is
	// isolated to that tool/phase and the pipeline continues.
	ErrToolFailure = errors.New("pipeline: tool failure")

	// ErrConstraintUnsatisfiable means the SMT solver reported UNSAT or
	// timed out; C8 falls back to the heuristic solver when this occurs.
	ErrConstraintUnsatisfiable = errors.New("pipeline: constraint unsatisfiable")

	// ErrValidationFailure means structural or rule-engine checks found
	// violations. Not fatal: it drives the refinement loop or is reported
	// in DiagramResult.Warnings.
	ErrValidationFailure = errors.New("pipeline: validation failure")

	// ErrRenderer means the renderer itself failed. Per spec this is rare
	// and a placeholder SVG is always emitted regardless; the error is
	// still surfaced to the caller.
	ErrRenderer = errors.New("pipeline: renderer error")

	// ErrFatal means unrecoverable internal state corruption. The pipeline
	// aborts and DiagramResult.Metadata.LastCompletedPhase records how far
	// it got.
	ErrFatal = errors.New("pipeline: fatal")
)

// StageError wraps an error from a named phase with the taxonomy category
// it belongs to, so callers can both errors.Is the category and read which
// phase produced it.
type StageError struct {
	Phase string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return e.Phase + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func wrapStage(phase string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Phase: phase, Kind: kind, Err: err}
}
