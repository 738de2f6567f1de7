package propgraph

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// ConstraintSeverity mirrors the hard/soft distinction carried through to
// the refinement loop (C10) and the domain-rule engine (C7).
type ConstraintSeverity int

const (
	SeverityHard ConstraintSeverity = iota
	SeveritySoft
)

func (s ConstraintSeverity) String() string {
	if s == SeveritySoft {
		return "soft"
	}
	return "hard"
}

// ValidateConstraintExpr compiles expr against a representative environment
// so malformed constraint expressions surface as extraction errors rather
// than failing silently deep in the layout or domain-rule stages.
func ValidateConstraintExpr(exprStr string, env map[string]interface{}) error {
	if exprStr == "" {
		return fmt.Errorf("constraint expression must not be empty")
	}
	if _, err := expr.Compile(exprStr, expr.Env(env)); err != nil {
		return fmt.Errorf("invalid constraint expression %q: %w", exprStr, err)
	}
	return nil
}

// EvalConstraintExpr evaluates a previously-validated boolean constraint
// expression against a concrete environment (node property values), used by
// the planner to evaluate its constraint-generation policy rules.
func EvalConstraintExpr(exprStr string, env map[string]interface{}) (bool, error) {
	program, err := expr.Compile(exprStr, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile constraint %q: %w", exprStr, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval constraint %q: %w", exprStr, err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("constraint %q did not evaluate to a bool", exprStr)
	}
	return result, nil
}
