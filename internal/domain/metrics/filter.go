package metrics

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"flowmetrics/internal/domain/workitem"
)

// ItemFilter evaluates a compiled CEL expression against work items.
// Expressions see `fields` (the raw field map) plus `state`, `type` and
// `assignee` convenience strings, e.g.:
//
//	type != 'Epic' && !(state in ['Removed'])
type ItemFilter struct {
	program cel.Program
}

// NewItemFilter compiles expr. The expression must evaluate to bool.
func NewItemFilter(expr string) (*ItemFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("state", cel.StringType),
		cel.Variable("type", cel.StringType),
		cel.Variable("assignee", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile item filter: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("item filter must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build item filter program: %w", err)
	}

	return &ItemFilter{program: program}, nil
}

// Matches reports whether the item passes the filter.
func (f *ItemFilter) Matches(item workitem.WorkItem) (bool, error) {
	fields := item.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	out, _, err := f.program.Eval(map[string]any{
		"fields":   fields,
		"state":    item.State(),
		"type":     item.Type(),
		"assignee": item.AssignedTo(),
	})
	if err != nil {
		return false, fmt.Errorf("eval item filter: %w", err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("item filter returned %T, want bool", out.Value())
	}
	return matched, nil
}
