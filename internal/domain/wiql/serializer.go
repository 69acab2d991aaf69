package wiql

import (
	"fmt"
	"strings"

	"flowmetrics/pkg/logger"
)

// String renders the query as canonical WIQL text. The WHERE and ORDER BY
// clauses are omitted entirely when empty.
func (q *Query) String() string {
	var b strings.Builder

	b.WriteString("SELECT ")
	if q.Top > 0 {
		fmt.Fprintf(&b, "TOP %d ", q.Top)
	}
	b.WriteString(renderSelect(q.SelectFields))

	b.WriteString(" FROM ")
	if q.From != "" {
		b.WriteString(q.From)
	} else {
		b.WriteString(DefaultFrom)
	}

	if len(q.Conditions) > 0 {
		b.WriteString(" WHERE ")
		for i, c := range q.Conditions {
			if i > 0 {
				conn := c.Connective
				if conn == "" {
					conn = ConnectiveAnd
				}
				b.WriteString(" " + string(conn) + " ")
			}
			b.WriteString(renderCondition(c))
		}
	}

	if len(q.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, ob := range q.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "[%s] %s", ob.Field, ob.Direction)
		}
	}

	return b.String()
}

func renderSelect(fields []string) string {
	if len(fields) == 0 {
		return "[" + FieldID + "]"
	}
	if len(fields) == 1 && fields[0] == Wildcard {
		return Wildcard
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = "[" + f + "]"
	}
	return strings.Join(parts, ", ")
}

func renderCondition(c Condition) string {
	return fmt.Sprintf("[%s] %s %s", c.Field, c.Operator, renderValue(c.Value))
}

// renderValue quotes and escapes strings; list elements are each quoted
// individually. Sentinels, numbers and booleans render verbatim.
func renderValue(v any) string {
	switch val := v.(type) {
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = "'" + EscapeValue(fmt.Sprintf("%v", elem)) + "'"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case string:
		return "'" + EscapeValue(val) + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// denyTokens are stripped from serialized values case-insensitively.
var denyTokens = []string{
	"--", "/*", "*/", ";",
	"UNION", "SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER",
}

// EscapeValue doubles embedded single quotes per WIQL convention and strips
// every case-variant occurrence of a fixed deny-list of SQL tokens, logging
// one warning per strip. This is best-effort defense in depth only; actual
// execution submits the query text as a JSON request body, never as
// concatenated SQL.
func EscapeValue(s string) string {
	out := strings.ReplaceAll(s, "'", "''")

	for _, token := range denyTokens {
		upToken := strings.ToUpper(token)
		for {
			idx := strings.Index(strings.ToUpper(out), upToken)
			if idx < 0 {
				break
			}
			logger.Default().Warnw("stripped suspicious token from WIQL value",
				"token", token,
			)
			out = out[:idx] + out[idx+len(token):]
		}
	}
	return out
}
