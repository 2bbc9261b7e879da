package gate

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Rule is a compiled session admission predicate. Expressions are written in
// CEL over a single `session` map of string attributes to arbitrary values,
// for example:
//
//	session.plan == "pro" || session.turns < 20
//
// Compilation rejects expressions that do not evaluate to a boolean, so a
// misconfigured rule fails at startup instead of at turn time.
type Rule struct {
	expr    string
	program cel.Program
}

// CompileRule compiles a CEL admission expression.
func CompileRule(expr string) (*Rule, error) {
	env, err := cel.NewEnv(
		cel.Variable("session", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %q: %w", expr, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %q must evaluate to a boolean, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to plan rule %q: %w", expr, err)
	}

	return &Rule{expr: expr, program: program}, nil
}

// Expr returns the source expression the rule was compiled from.
func (r *Rule) Expr() string {
	return r.expr
}

// Allow evaluates the rule against the session attributes.
func (r *Rule) Allow(attrs map[string]any) (bool, error) {
	out, _, err := r.program.Eval(map[string]any{"session": attrs})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rule %q: %w", r.expr, err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q produced %T, expected bool", r.expr, out.Value())
	}

	return allowed, nil
}
