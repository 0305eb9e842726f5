// Package alert evaluates the configurable low-stock rule.
//
// The rule is a CEL expression over a product's stock facts, for example
//
//	stockQuantity <= lowStockAlert || daysToExpiry < 30
package alert

import (
	"fmt"
	"math"
	"time"

	"github.com/google/cel-go/cel"
)

// NoExpiry is reported as daysToExpiry for products without an expiry date.
const NoExpiry int64 = math.MaxInt32

// Facts are the variables visible to a rule.
type Facts struct {
	StockQuantity   float64
	OverallQuantity float64
	LowStockAlert   float64
	Category        string
	DaysToExpiry    int64
}

// DaysUntil returns whole days from now until expiry, or NoExpiry.
func DaysUntil(expiry *time.Time, now time.Time) int64 {
	if expiry == nil {
		return NoExpiry
	}
	return int64(math.Floor(expiry.Sub(now).Hours() / 24))
}

// Rule is a compiled low-stock expression. It is safe for concurrent use.
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expr. The expression must yield a bool.
func Compile(expr string) (*Rule, error) {
	env, err := cel.NewEnv(
		cel.CrossTypeNumericComparisons(true),
		cel.Variable("stockQuantity", cel.DoubleType),
		cel.Variable("overallQuantity", cel.DoubleType),
		cel.Variable("lowStockAlert", cel.DoubleType),
		cel.Variable("category", cel.StringType),
		cel.Variable("daysToExpiry", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile low-stock rule %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("low-stock rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build low-stock rule program: %w", err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// Evaluate reports whether the facts match the rule.
func (r *Rule) Evaluate(f Facts) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{
		"stockQuantity":   f.StockQuantity,
		"overallQuantity": f.OverallQuantity,
		"lowStockAlert":   f.LowStockAlert,
		"category":        f.Category,
		"daysToExpiry":    f.DaysToExpiry,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate low-stock rule: %w", err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("low-stock rule returned %T", out.Value())
	}
	return matched, nil
}

// String returns the source expression.
func (r *Rule) String() string { return r.expr }
