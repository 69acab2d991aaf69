package handlers

import (
	"github.com/gin-gonic/gin"

	"flowmetrics/internal/domain/flow"
	"flowmetrics/internal/domain/metrics"
	"flowmetrics/internal/infrastructure/http/v1/dto"
)

// ReportHandler exposes flow metrics reports.
type ReportHandler struct {
	*BaseHandler
	service *flow.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(base *BaseHandler, service *flow.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// Flow produces a flow metrics report for a project.
func (h *ReportHandler) Flow(c *gin.Context) {
	var req dto.ReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	report, err := h.service.Report(c.Request.Context(), flow.ReportOptions{
		Fetch: flow.FetchOptions{
			Project:       req.Project,
			DaysBack:      req.DaysBack,
			WorkItemTypes: req.WorkItemTypes,
			States:        req.States,
			Assignees:     req.Assignees,
		},
		Metrics: metrics.Options{
			Filter:          req.Filter,
			ThroughputWeeks: req.ThroughputWeeks,
		},
		FromSnapshot: req.FromSnapshot,
		Snapshot:     req.SaveSnapshot,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}
