package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/interfaces/http/dto"
)

// SalesHandler serves the KPI dashboard endpoints
type SalesHandler struct {
	BaseHandler
	service SalesService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(service SalesService) *SalesHandler {
	return &SalesHandler{service: service}
}

// AvailableMonthsResponse lists the months holding data, newest first
type AvailableMonthsResponse struct {
	UnitID *string  `json:"unit_id"`
	Months []string `json:"months"`
}

// BusinessUnitsResponse lists the units present in the ledger
type BusinessUnitsResponse struct {
	Units []analytics.BusinessUnit `json:"units"`
}

// GetMetrics returns the KPI card with growth and the trailing trend.
// GET /sales/metrics
func (h *SalesHandler) GetMetrics(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.SalesMetrics(requestContext(c), periodRequest(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetYTD compares year-to-date against the same span a year earlier.
// GET /sales/ytd
func (h *SalesHandler) GetYTD(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.YTDComparison(requestContext(c), periodRequest(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetMTD compares month-to-date against the prior month.
// GET /sales/mtd
func (h *SalesHandler) GetMTD(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.MTDStats(requestContext(c), periodRequest(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetAvailableMonths lists months with data.
// GET /sales/available-months
func (h *SalesHandler) GetAvailableMonths(c *gin.Context) {
	var q dto.UnitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	months, err := h.service.AvailableMonths(requestContext(c), q.UnitIDPtr())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, AvailableMonthsResponse{UnitID: q.UnitIDPtr(), Months: months})
}

// GetBusinessUnits lists business units.
// GET /units
func (h *SalesHandler) GetBusinessUnits(c *gin.Context) {
	units, err := h.service.BusinessUnits(requestContext(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BusinessUnitsResponse{Units: units})
}
