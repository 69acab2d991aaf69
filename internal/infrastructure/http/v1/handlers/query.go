package handlers

import (
	"github.com/gin-gonic/gin"

	"flowmetrics/internal/domain/flow"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/infrastructure/http/v1/dto"
)

// QueryHandler exposes query validation and building endpoints.
type QueryHandler struct {
	*BaseHandler
	service *flow.Service
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(base *BaseHandler, service *flow.Service) *QueryHandler {
	return &QueryHandler{BaseHandler: base, service: service}
}

// Validate checks WIQL text and returns the canonical form plus any
// validation errors. Invalid queries still return 200: the errors are
// the payload, not a failure.
func (h *QueryHandler) Validate(c *gin.Context) {
	var req dto.ValidateQueryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	h.OK(c, h.service.ValidateText(req.Query))
}

// Build assembles a work item query from structured parameters.
func (h *QueryHandler) Build(c *gin.Context) {
	var req dto.BuildQueryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	filters := make([]wiql.Filter, 0, len(req.Filters))
	for _, f := range req.Filters {
		filters = append(filters, wiql.Filter{Field: f.Field, Value: f.Value})
	}

	q, err := h.service.BuildQuery(flow.FetchOptions{
		Project:       req.Project,
		DaysBack:      req.DaysBack,
		WorkItemTypes: req.WorkItemTypes,
		States:        req.States,
		Assignees:     req.Assignees,
		Filters:       filters,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.QueryResponse{Query: q.String(), ProjectFilter: q.ProjectFilter})
}
