package handler

import (
	"github.com/gin-gonic/gin"
	analyticsapp "github.com/salesinsight/backend/internal/application/analytics"
	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/interfaces/http/dto"
)

// ForecastHandler serves merged forecast series and narrated insights
type ForecastHandler struct {
	BaseHandler
	service ForecastService
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// GetGlobal returns the merged global series. An unavailable forecast
// still answers 200 with actuals only and a warning.
// GET /forecast/global
func (h *ForecastHandler) GetGlobal(c *gin.Context) {
	var q dto.UnitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Global(requestContext(c), q.UnitIDPtr())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetItems returns one merged series per top item.
// GET /forecast/items
func (h *ForecastHandler) GetItems(c *gin.Context) {
	var q dto.ForecastCollectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Items(requestContext(c), q.UnitIDPtr(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetTerritories returns one merged series per top territory.
// GET /forecast/territories
func (h *ForecastHandler) GetTerritories(c *gin.Context) {
	var q dto.ForecastCollectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.service.Territories(requestContext(c), q.UnitIDPtr(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PostInsights narrates one forecast series. A missing forecast or
// narration backend answers 503.
// POST /forecast/insights
func (h *ForecastHandler) PostInsights(c *gin.Context) {
	var req dto.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	var unitID *string
	if req.UnitID != "" {
		unitID = &req.UnitID
	}
	resp, err := h.service.Insights(requestContext(c), analyticsapp.InsightRequest{
		UnitID: unitID,
		Kind:   analytics.ForecastKind(req.Kind),
		Key:    req.Key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
