package wiql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	selectRe  = regexp.MustCompile(`(?i)\bSELECT\s+(?:TOP\s+(\d+)\s+)?(.+?)\s+FROM\b`)
	fromRe    = regexp.MustCompile(`(?i)\bFROM\s+([A-Za-z_]\w*)`)
	whereRe   = regexp.MustCompile(`(?i)\bWHERE\s+(.+?)(?:\s+ORDER\s+BY\b|$)`)
	orderByRe = regexp.MustCompile(`(?i)\bORDER\s+BY\s+(.+)$`)

	// Multi-word operators come before their single-word prefixes (NOT IN
	// before IN, etc.) so the longest spelling wins.
	conditionRe = regexp.MustCompile(`(?i)^(?:\[([^\]]+)\]|([A-Za-z_][\w.]*))\s*` +
		`(NOT\s+IN\b|NOT\s+EVER\b|WAS\s+EVER\b|CHANGED\s+DATE\b|CHANGED\s+BY\b|` +
		`CONTAINS\b|LIKE\b|UNDER\b|EVER\b|IN\b|>=|<=|<>|=|>|<)\s*(.+)$`)

	numberRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// Parse turns WIQL text into a Query. Malformed individual conditions are
// dropped silently and unknown fields are deferred to Validate, so Parse
// fails only on an unexpected internal error during clause extraction.
func Parse(text string) (q *Query, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("wiql parse: %v", r)
		}
	}()

	norm := normalize(text)

	selectFields, top := extractSelect(norm)
	conds := parseConditions(extractWhere(norm))

	return &Query{
		SelectFields:  selectFields,
		From:          extractFrom(norm),
		Conditions:    conds,
		OrderBy:       parseOrderBy(extractOrderBy(norm)),
		Top:           top,
		ProjectFilter: projectFilter(conds),
	}, nil
}

// normalize strips comments and collapses whitespace.
func normalize(text string) string {
	text = blockCommentRe.ReplaceAllString(text, " ")
	text = lineCommentRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractSelect returns the ordered select field list and the TOP count.
// An absent or unparseable clause yields the default [System.Id].
func extractSelect(text string) ([]string, int) {
	m := selectRe.FindStringSubmatch(text)
	if m == nil {
		return []string{FieldID}, 0
	}

	top := 0
	if m[1] != "" {
		top, _ = strconv.Atoi(m[1])
	}

	raw := strings.TrimSpace(m[2])
	if raw == Wildcard {
		return []string{Wildcard}, top
	}

	var fields []string
	for _, part := range strings.Split(raw, ",") {
		if name := stripBrackets(part); name != "" {
			fields = append(fields, name)
		}
	}
	if len(fields) == 0 {
		fields = []string{FieldID}
	}
	return fields, top
}

func extractFrom(text string) string {
	if m := fromRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return DefaultFrom
}

func extractWhere(text string) string {
	if m := whereRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractOrderBy(text string) string {
	if m := orderByRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func stripBrackets(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "[")
	name = strings.TrimSuffix(name, "]")
	return strings.TrimSpace(name)
}

// parseConditions splits the WHERE region and parses each piece. Pieces
// that do not match the `[field] OPERATOR value` shape produce no
// Condition.
func parseConditions(where string) []Condition {
	if where == "" {
		return nil
	}

	parts, connectives := splitConditions(where)

	var conds []Condition
	for i, part := range parts {
		var conn Connective
		if i > 0 {
			conn = connectives[i-1]
		}
		if c, ok := parseCondition(part, conn); ok {
			conds = append(conds, c)
		}
	}
	return conds
}

// splitConditions lexically splits on AND/OR outside quoted strings.
// Parentheses are NOT grouping: `(A OR B) AND C` yields three flat
// conditions. len(connectives) == len(parts)-1.
func splitConditions(text string) (parts []string, connectives []Connective) {
	upper := strings.ToUpper(text)

	var quote byte
	start := 0
	for i := 0; i < len(text); {
		c := text[i]

		if quote != 0 {
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			i++
			continue
		}

		if strings.HasPrefix(upper[i:], " AND ") {
			parts = append(parts, text[start:i])
			connectives = append(connectives, ConnectiveAnd)
			i += len(" AND ")
			start = i
			continue
		}
		if strings.HasPrefix(upper[i:], " OR ") {
			parts = append(parts, text[start:i])
			connectives = append(connectives, ConnectiveOr)
			i += len(" OR ")
			start = i
			continue
		}
		i++
	}

	parts = append(parts, text[start:])
	return parts, connectives
}

// parseCondition matches `[field] OPERATOR value`. Stray parentheses left
// over from unsupported grouping are dropped before matching.
func parseCondition(text string, conn Connective) (Condition, bool) {
	text = strings.TrimSpace(text)
	for strings.HasPrefix(text, "(") {
		text = strings.TrimSpace(strings.TrimPrefix(text, "("))
	}
	for strings.HasSuffix(text, ")") && strings.Count(text, ")") > strings.Count(text, "(") {
		text = strings.TrimSpace(strings.TrimSuffix(text, ")"))
	}

	m := conditionRe.FindStringSubmatch(text)
	if m == nil {
		return Condition{}, false
	}

	field := m[1]
	if field == "" {
		field = m[2]
	}

	return Condition{
		Field:      field,
		Operator:   canonicalOperator(m[3]),
		Value:      parseValue(strings.TrimSpace(m[4])),
		Connective: conn,
	}, true
}

// parseValue interprets a raw value string. Precedence: list, quoted
// string, boolean, number, sentinel, raw string.
func parseValue(raw string) any {
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		inner := raw[1 : len(raw)-1]
		elems := strings.Split(inner, ",")
		list := make([]any, 0, len(elems))
		for _, e := range elems {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			list = append(list, parseScalar(e))
		}
		return list
	}
	return parseScalar(raw)
}

func parseScalar(raw string) any {
	if s, ok := stripQuotes(raw); ok {
		return s
	}

	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}

	if numberRe.MatchString(raw) {
		if strings.Contains(raw, ".") {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				return f
			}
		} else if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}

	switch strings.ToUpper(raw) {
	case string(SentinelNull):
		return SentinelNull
	case string(SentinelToday):
		return SentinelToday
	case string(SentinelMe):
		return SentinelMe
	}

	return raw
}

// stripQuotes removes one pair of matching quotes. No escape decoding
// happens here; doubled quotes are a serializer concern.
func stripQuotes(raw string) (string, bool) {
	if len(raw) < 2 {
		return "", false
	}
	first, last := raw[0], raw[len(raw)-1]
	if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
		return raw[1 : len(raw)-1], true
	}
	return "", false
}

// parseOrderBy parses `field [ASC|DESC], ...`. Direction defaults to ASC.
func parseOrderBy(rest string) []OrderBy {
	if rest == "" {
		return nil
	}

	var items []OrderBy
	for _, part := range strings.Split(rest, ",") {
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) == 0 {
			continue
		}

		item := OrderBy{Field: stripBrackets(tokens[0]), Direction: Ascending}
		if item.Field == "" {
			continue
		}
		if len(tokens) > 1 && strings.EqualFold(tokens[1], string(Descending)) {
			item.Direction = Descending
		}
		items = append(items, item)
	}
	return items
}
