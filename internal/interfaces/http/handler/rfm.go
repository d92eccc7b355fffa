package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	analyticsapp "github.com/salesinsight/backend/internal/application/analytics"
	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/interfaces/http/dto"
)

// RFMHandler serves customer segmentation
type RFMHandler struct {
	BaseHandler
	service RFMService
}

// NewRFMHandler creates a new RFMHandler
func NewRFMHandler(service RFMService) *RFMHandler {
	return &RFMHandler{service: service}
}

// SegmentsResponse is the segment rollup on its own
type SegmentsResponse struct {
	Segments []analytics.SegmentSummary `json:"segments"`
}

func rfmQuery(q dto.RFMQuery) (analyticsapp.RFMQuery, error) {
	query := analyticsapp.RFMQuery{
		Period: periodRequest(q.PeriodQuery),
		Basis:  analytics.MonetaryBasis(q.Basis),
	}
	var err error
	if query.StartDate, err = parseDate(q.StartDate); err != nil {
		return query, err
	}
	if query.EndDate, err = parseDate(q.EndDate); err != nil {
		return query, err
	}
	return query, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(analytics.DateLayout, raw)
	if err != nil {
		return time.Time{}, analytics.ErrInvalidPeriod.WithMessage("dates must be YYYY-MM-DD: " + raw)
	}
	return t, nil
}

// GetAnalysis returns scored customers, the segment summary and metadata.
// GET /rfm/analysis
func (h *RFMHandler) GetAnalysis(c *gin.Context) {
	var q dto.RFMQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	query, err := rfmQuery(q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.service.Analyze(requestContext(c), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetSegments returns the segment summary only.
// GET /rfm/segments
func (h *RFMHandler) GetSegments(c *gin.Context) {
	var q dto.RFMQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	query, err := rfmQuery(q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	segments, err := h.service.Segments(requestContext(c), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SegmentsResponse{Segments: segments})
}
