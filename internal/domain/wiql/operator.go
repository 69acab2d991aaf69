package wiql

import "strings"

// Operator defines a WIQL comparison operator.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "<>"
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpLike           Operator = "LIKE"
	OpContains       Operator = "CONTAINS"
	OpIn             Operator = "IN"
	OpNotIn          Operator = "NOT IN"
	OpUnder          Operator = "UNDER"
	OpEver           Operator = "EVER"
	OpNotEver        Operator = "NOT EVER"
	OpWasEver        Operator = "WAS EVER"
	OpChangedDate    Operator = "CHANGED DATE"
	OpChangedBy      Operator = "CHANGED BY"
)

// IsList reports whether the operator requires a list value.
func (op Operator) IsList() bool {
	return op == OpIn || op == OpNotIn
}

// canonicalOperator maps a raw operator match (any case, any inner
// whitespace) to its canonical spelling.
func canonicalOperator(raw string) Operator {
	up := strings.ToUpper(strings.TrimSpace(raw))
	return Operator(whitespaceRe.ReplaceAllString(up, " "))
}

// Connective joins a condition to the one before it.
type Connective string

const (
	ConnectiveAnd Connective = "AND"
	ConnectiveOr  Connective = "OR"
)

// Direction is an ORDER BY sort direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)
