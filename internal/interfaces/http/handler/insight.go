package handler

import (
	"github.com/gin-gonic/gin"
	analyticsapp "github.com/salesinsight/backend/internal/application/analytics"
	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/interfaces/http/dto"
)

// InsightHandler serves narrated sales summaries
type InsightHandler struct {
	BaseHandler
	service NarrationService
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(service NarrationService) *InsightHandler {
	return &InsightHandler{service: service}
}

// GetInsight narrates one summary kind of a period: concentration,
// credit_ratio, regional, area or territory. A missing narration backend
// answers 503.
// GET /analytics/insights/:kind
func (h *InsightHandler) GetInsight(c *gin.Context) {
	var uri dto.InsightKindURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindingError(c, err)
		return
	}
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	kind, err := analytics.ParseSummaryKind(uri.Kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.service.Narrate(requestContext(c), analyticsapp.NarrativeRequest{
		Period: periodRequest(q),
		Kind:   kind,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
