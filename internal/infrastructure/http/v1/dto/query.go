// Package dto contains request and response shapes for the HTTP API.
package dto

// ValidateQueryRequest carries WIQL text to check.
type ValidateQueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// BuildQueryFilter is one extra condition for a built query.
type BuildQueryFilter struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value" binding:"required"`
}

// BuildQueryRequest describes the work item query to assemble.
type BuildQueryRequest struct {
	Project       string             `json:"project" binding:"required"`
	DaysBack      int                `json:"daysBack"`
	WorkItemTypes []string           `json:"workItemTypes"`
	States        []string           `json:"states"`
	Assignees     []string           `json:"assignees"`
	Filters       []BuildQueryFilter `json:"filters"`
}

// QueryResponse returns the canonical WIQL text of a query.
type QueryResponse struct {
	Query         string `json:"query"`
	ProjectFilter string `json:"projectFilter,omitempty"`
}

// FieldResponse describes one queryable field.
type FieldResponse struct {
	DisplayName   string   `json:"displayName"`
	ReferenceName string   `json:"referenceName"`
	Type          string   `json:"type"`
	Sortable      bool     `json:"sortable"`
	Queryable     bool     `json:"queryable"`
	Operators     []string `json:"operators"`
}
