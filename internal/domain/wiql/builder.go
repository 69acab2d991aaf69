package wiql

import "time"

// Filter is an extra constraint appended by the builder: `=` for scalar
// values, IN for lists. A slice (not a map) keeps the produced condition
// order deterministic.
type Filter struct {
	Field string
	Value any
}

// builderSelectFields is the field set the flow metrics pipeline needs.
var builderSelectFields = []string{
	FieldID,
	FieldTitle,
	FieldWorkItemType,
	FieldState,
	FieldAssignedTo,
	FieldCreatedDate,
	FieldChangedDate,
	FieldActivatedDate,
	FieldClosedDate,
}

// BuildWorkItemQuery constructs the standard "work items by project" query
// without going through text parsing. Conditions are emitted in a fixed
// order: project, changed-date cutoff, type, state, assignee, then one per
// additional filter, all joined by AND.
func BuildWorkItemQuery(project string, daysBack int, workItemTypes, states, assignees []string, additional []Filter) *Query {
	conds := []Condition{{
		Field:    FieldTeamProject,
		Operator: OpEqual,
		Value:    project,
	}}

	if daysBack > 0 {
		cutoff := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
		conds = append(conds, Condition{
			Field:      FieldChangedDate,
			Operator:   OpGreaterOrEqual,
			Value:      cutoff,
			Connective: ConnectiveAnd,
		})
	}

	if len(workItemTypes) > 0 {
		conds = append(conds, inCondition(FieldWorkItemType, workItemTypes))
	}
	if len(states) > 0 {
		conds = append(conds, inCondition(FieldState, states))
	}
	if len(assignees) > 0 {
		conds = append(conds, inCondition(FieldAssignedTo, assignees))
	}

	for _, f := range additional {
		c := Condition{
			Field:      f.Field,
			Operator:   OpEqual,
			Value:      f.Value,
			Connective: ConnectiveAnd,
		}
		if list, ok := asList(f.Value); ok {
			c.Operator = OpIn
			c.Value = list
		}
		conds = append(conds, c)
	}

	return &Query{
		SelectFields:  append([]string(nil), builderSelectFields...),
		From:          DefaultFrom,
		Conditions:    conds,
		OrderBy:       []OrderBy{{Field: FieldChangedDate, Direction: Descending}},
		ProjectFilter: projectFilter(conds),
	}
}

func inCondition(field string, values []string) Condition {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	return Condition{
		Field:      field,
		Operator:   OpIn,
		Value:      list,
		Connective: ConnectiveAnd,
	}
}

// asList normalizes slice values to []any.
func asList(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []string:
		list := make([]any, len(val))
		for i, s := range val {
			list[i] = s
		}
		return list, true
	case []int:
		list := make([]any, len(val))
		for i, n := range val {
			list[i] = n
		}
		return list, true
	}
	return nil, false
}
