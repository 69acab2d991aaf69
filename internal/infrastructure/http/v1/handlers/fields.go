package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"

	"flowmetrics/internal/core/apperror"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/infrastructure/http/v1/dto"
)

// FieldsHandler exposes the field registry.
type FieldsHandler struct {
	*BaseHandler
	registry *wiql.Registry
}

// NewFieldsHandler creates a fields handler.
func NewFieldsHandler(base *BaseHandler, registry *wiql.Registry) *FieldsHandler {
	return &FieldsHandler{BaseHandler: base, registry: registry}
}

// List returns all known fields sorted by reference name.
func (h *FieldsHandler) List(c *gin.Context) {
	fields := h.registry.Fields()

	out := make([]dto.FieldResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, toFieldResponse(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceName < out[j].ReferenceName })

	h.OK(c, out)
}

// Get returns one field by reference name.
func (h *FieldsHandler) Get(c *gin.Context) {
	name := c.Param("name")
	f, ok := h.registry.Resolve(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("field", name))
		return
	}
	h.OK(c, toFieldResponse(f))
}

func toFieldResponse(f wiql.FieldDefinition) dto.FieldResponse {
	ops := make([]string, 0, len(f.Operators))
	for _, op := range f.Operators {
		ops = append(ops, string(op))
	}
	return dto.FieldResponse{
		DisplayName:   f.DisplayName,
		ReferenceName: f.ReferenceName,
		Type:          string(f.Type),
		Sortable:      f.Sortable,
		Queryable:     f.Queryable,
		Operators:     ops,
	}
}
