package selection

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-selectfield/pkg/option"
)

// DisableExpr compiles an expr-lang expression into a DisableFunc. The
// expression is evaluated per entry with `key` and `label` in scope and must
// produce a boolean, e.g. `key == "archived"` or `label contains "(legacy)"`.
// Compilation errors surface at setup time; evaluation errors fail open so a
// bad rule never locks every option.
func DisableExpr(expression string) (DisableFunc, error) {
	if expression == "" {
		return nil, fmt.Errorf("selection: disable expression must not be empty")
	}

	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{"key": "", "label": ""}),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("selection: compile disable expression %q: %w", expression, err)
	}
	return func(entry option.Entry) bool {
		return runDisable(program, entry)
	}, nil
}

func runDisable(program *exprvm.Program, entry option.Entry) bool {
	out, err := exprlang.Run(program, map[string]any{
		"key":   entry.Key,
		"label": entry.Label,
	})
	if err != nil {
		return false
	}
	disabled, ok := out.(bool)
	return ok && disabled
}
