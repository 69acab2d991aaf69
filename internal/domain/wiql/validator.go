package wiql

import (
	"fmt"
	"time"
)

// Validate checks a query against the registry and returns human-readable
// problems. It never fails hard; an empty result means the query is valid.
func Validate(q *Query, reg *Registry) []string {
	var errs []string

	for _, f := range q.SelectFields {
		if f == Wildcard {
			continue
		}
		if _, ok := reg.Resolve(f); !ok {
			errs = append(errs, fmt.Sprintf("unknown field in SELECT: %s", f))
		}
	}

	for _, c := range q.Conditions {
		def, ok := reg.Resolve(c.Field)
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown field in WHERE: %s", c.Field))
			continue
		}
		if !def.Queryable {
			errs = append(errs, fmt.Sprintf("field %s is not queryable", def.ReferenceName))
			continue
		}
		if !def.SupportsOperator(c.Operator) {
			errs = append(errs, fmt.Sprintf("operator %s not supported for field %s (%s)",
				c.Operator, def.ReferenceName, def.Type))
			continue
		}
		errs = append(errs, valueTypeErrors(def, c)...)
	}

	for _, ob := range q.OrderBy {
		def, ok := reg.Resolve(ob.Field)
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown field in ORDER BY: %s", ob.Field))
			continue
		}
		if !def.Sortable {
			errs = append(errs, fmt.Sprintf("field %s is not sortable", def.ReferenceName))
		}
	}

	return errs
}

// valueTypeErrors checks the condition value shape and type. List operators
// require list values with each element checked individually.
func valueTypeErrors(def FieldDefinition, c Condition) []string {
	list, isList := c.Value.([]any)

	if c.Operator.IsList() {
		if !isList {
			return []string{fmt.Sprintf("operator %s requires a list value for field %s",
				c.Operator, def.ReferenceName)}
		}
		var errs []string
		for _, elem := range list {
			if msg := scalarTypeError(def, elem); msg != "" {
				errs = append(errs, msg)
			}
		}
		return errs
	}

	if isList {
		return []string{fmt.Sprintf("list value requires IN or NOT IN for field %s",
			def.ReferenceName)}
	}
	if msg := scalarTypeError(def, c.Value); msg != "" {
		return []string{msg}
	}
	return nil
}

// scalarTypeError returns a message when v does not fit the field type.
// Sentinel values always pass. Identity, TreePath, Guid and History have no
// shape check beyond the list rules above.
func scalarTypeError(def FieldDefinition, v any) string {
	if _, ok := v.(Sentinel); ok {
		return ""
	}

	switch def.Type {
	case TypeInteger:
		if _, ok := v.(int); !ok {
			return fmt.Sprintf("field %s expects an integer value, got %v", def.ReferenceName, v)
		}
	case TypeDouble:
		switch v.(type) {
		case int, float64:
		default:
			return fmt.Sprintf("field %s expects a numeric value, got %v", def.ReferenceName, v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("field %s expects a boolean value, got %v", def.ReferenceName, v)
		}
	case TypeDateTime:
		s, ok := v.(string)
		if !ok || !isISODateTime(s) {
			return fmt.Sprintf("field %s expects an ISO-8601 date value, got %v", def.ReferenceName, v)
		}
	case TypeString, TypePlainText, TypeHTML:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("field %s expects a string value, got %v", def.ReferenceName, v)
		}
	}
	return ""
}

var dateTimeLayouts = []string{
	time.RFC3339, // trailing Z accepted as +00:00
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func isISODateTime(s string) bool {
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
