package handler

import (
	"github.com/gin-gonic/gin"
	analyticsapp "github.com/salesinsight/backend/internal/application/analytics"
	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/interfaces/http/dto"
)

// AnalyticsHandler serves dimension breakdowns and the derived reports
type AnalyticsHandler struct {
	BaseHandler
	service SalesService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service SalesService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetDimension returns the aggregate, ranking and growth for one dimension.
// GET /analytics/dimensions/:dimension
func (h *AnalyticsHandler) GetDimension(c *gin.Context) {
	var uri dto.DimensionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindingError(c, err)
		return
	}
	var q dto.DimensionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	dim, err := analytics.ParseDimension(uri.Dimension)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.service.DimensionBreakdown(requestContext(c), analyticsapp.DimensionQuery{
		Period:    periodRequest(q.PeriodQuery),
		Dimension: dim,
		TopN:      q.TopN,
		BottomN:   q.BottomN,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetRegional returns territory rankings with growth and the region and area lists.
// GET /analytics/regional
func (h *AnalyticsHandler) GetRegional(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.RegionalPerformance(requestContext(c), periodRequest(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetCustomers returns the top customers and volume concentration.
// GET /analytics/customers
func (h *AnalyticsHandler) GetCustomers(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.CustomerAnalytics(requestContext(c), periodRequest(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetPaymentModes returns the payment-mode mix.
// GET /analytics/payment-modes
func (h *AnalyticsHandler) GetPaymentModes(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.PaymentModes(requestContext(c), periodRequest(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
