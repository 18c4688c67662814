package reports

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultLowStockRule flags rows at or below their reorder level.
const DefaultLowStockRule = "quantity <= reorder_level"

// LowStockRule is a compiled CEL expression over quantity and
// reorder_level that yields a bool.
type LowStockRule struct {
	source  string
	program cel.Program
}

// CompileLowStockRule parses and type-checks expr.
func CompileLowStockRule(expr string) (*LowStockRule, error) {
	if expr == "" {
		expr = DefaultLowStockRule
	}

	env, err := cel.NewEnv(
		cel.Variable("quantity", cel.IntType),
		cel.Variable("reorder_level", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile low stock rule %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("low stock rule %q must return bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build low stock rule: %w", err)
	}

	return &LowStockRule{source: expr, program: prg}, nil
}

// String returns the expression source.
func (r *LowStockRule) String() string {
	return r.source
}

// Match evaluates the rule for one stock row.
func (r *LowStockRule) Match(quantity, reorderLevel int64) (bool, error) {
	out, _, err := r.program.Eval(map[string]any{
		"quantity":      quantity,
		"reorder_level": reorderLevel,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate low stock rule: %w", err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("low stock rule returned %T", out.Value())
	}
	return matched, nil
}
