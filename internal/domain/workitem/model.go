// Package workitem defines the work item model returned by the tracker API.
package workitem

import (
	"time"

	"flowmetrics/internal/domain/wiql"
)

// WorkItem is a single tracker item. Fields holds the raw field payload
// keyed by reference name; typed accessors below cover the fields the
// metrics pipeline reads.
type WorkItem struct {
	ID     int            `json:"id"`
	Fields map[string]any `json:"fields"`
}

// StringField returns a field as string, empty when absent or not a string.
func (w WorkItem) StringField(ref string) string {
	s, _ := w.Fields[ref].(string)
	return s
}

// DateField parses a field as an ISO-8601 timestamp.
func (w WorkItem) DateField(ref string) (time.Time, bool) {
	s, ok := w.Fields[ref].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Title returns the item title.
func (w WorkItem) Title() string { return w.StringField(wiql.FieldTitle) }

// State returns the workflow state.
func (w WorkItem) State() string { return w.StringField(wiql.FieldState) }

// Type returns the work item type (Bug, Task, ...).
func (w WorkItem) Type() string { return w.StringField(wiql.FieldWorkItemType) }

// AssignedTo returns the assignee display name. The tracker returns
// identity fields either as a plain string or as an object with a
// displayName member.
func (w WorkItem) AssignedTo() string {
	switch v := w.Fields[wiql.FieldAssignedTo].(type) {
	case string:
		return v
	case map[string]any:
		s, _ := v["displayName"].(string)
		return s
	}
	return ""
}

// CreatedDate returns when the item was created.
func (w WorkItem) CreatedDate() (time.Time, bool) { return w.DateField(wiql.FieldCreatedDate) }

// ChangedDate returns when the item last changed.
func (w WorkItem) ChangedDate() (time.Time, bool) { return w.DateField(wiql.FieldChangedDate) }

// ActivatedDate returns when work started on the item.
func (w WorkItem) ActivatedDate() (time.Time, bool) { return w.DateField(wiql.FieldActivatedDate) }

// ClosedDate returns when the item was closed.
func (w WorkItem) ClosedDate() (time.Time, bool) { return w.DateField(wiql.FieldClosedDate) }
