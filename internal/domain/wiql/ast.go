// Package wiql implements a query engine for the WIQL work item query
// language: a hand-written parser, a field schema registry, a validator and
// a canonical serializer.
//
// This package is a frontend layer only. It never executes a query; the
// serialized text is handed to the work item service client. The grammar is
// flat: conditions are joined by AND/OR in source order with no
// parenthesized grouping and no operator precedence.
package wiql

// Sentinel is a named special value that bypasses field-type checking.
type Sentinel string

const (
	SentinelNull  Sentinel = "NULL"
	SentinelToday Sentinel = "@TODAY"
	SentinelMe    Sentinel = "@ME"
)

// Wildcard selects all fields.
const Wildcard = "*"

// DefaultFrom is the entity queried when the FROM clause is absent.
const DefaultFrom = "WorkItems"

// Condition is a single WHERE constraint. Field holds the raw reference
// name; it is resolved against the registry at validation time, never at
// parse time. Connective is the AND/OR that precedes the condition in
// source order and is empty for the first one.
type Condition struct {
	Field      string
	Operator   Operator
	Value      any // string, int, float64, bool, Sentinel, or []any
	Connective Connective
}

// OrderBy is a single ORDER BY entry.
type OrderBy struct {
	Field     string
	Direction Direction
}

// Query is the structured form of a WIQL query. Parse and the builder both
// return a fresh value; a Query is read-only after construction.
type Query struct {
	SelectFields []string
	From         string
	Conditions   []Condition
	OrderBy      []OrderBy
	Top          int

	// ProjectFilter is the value of the first `TeamProject =` condition,
	// or empty when the query is not scoped to a project.
	ProjectFilter string
}

// projectFilter extracts the first TeamProject equality value.
func projectFilter(conds []Condition) string {
	for _, c := range conds {
		if c.Field == FieldTeamProject && c.Operator == OpEqual {
			if s, ok := c.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}
