package dto

import "time"

// Response is the single envelope every endpoint returns
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// YearMonthLayout is the wire format of a calendar month
const YearMonthLayout = "2006-01"

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response with a normalized code
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    NormalizeErrorCode(code),
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// NewValidationErrorResponse creates a validation error response with field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      ErrCodeValidation,
			Message:   message,
			RequestID: requestID,
			Details:   details,
		},
	}
}

// PeriodQuery holds the period parameters shared by the sales and analytics endpoints.
// Period, as YYYY-MM, takes precedence over Year and Month.
type PeriodQuery struct {
	UnitID     string `form:"unit_id" binding:"omitempty,max=64"`
	Year       int    `form:"year" binding:"omitempty,gte=1900,lte=9999"`
	Month      int    `form:"month" binding:"omitempty,gte=1,lte=12"`
	Period     string `form:"period" binding:"omitempty,yearmonth"`
	FiscalYear bool   `form:"fiscal_year"`
}

// YearMonth returns the requested year and month; zero values are unset
func (q PeriodQuery) YearMonth() (int, int) {
	if q.Period != "" {
		if t, err := time.Parse(YearMonthLayout, q.Period); err == nil {
			return t.Year(), int(t.Month())
		}
	}
	return q.Year, q.Month
}

// UnitIDPtr returns the unit filter, or nil for all units
func (q PeriodQuery) UnitIDPtr() *string {
	return optionalUnit(q.UnitID)
}

// DimensionQuery adds ranking sizes to a period query
type DimensionQuery struct {
	PeriodQuery
	TopN    int `form:"top_n" binding:"omitempty,gte=1,lte=100"`
	BottomN int `form:"bottom_n" binding:"omitempty,gte=1,lte=100"`
}

// DimensionURI is the dimension path parameter
type DimensionURI struct {
	Dimension string `uri:"dimension" binding:"required,dimension"`
}

// InsightKindURI is the summary kind path parameter
type InsightKindURI struct {
	Kind string `uri:"kind" binding:"required,max=32"`
}

// RFMQuery adds an inclusive date range and the monetary basis to a period query
type RFMQuery struct {
	PeriodQuery
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Basis     string `form:"basis" binding:"omitempty,oneof=quantity revenue"`
}

// UnitQuery selects an optional business unit
type UnitQuery struct {
	UnitID string `form:"unit_id" binding:"omitempty,max=64"`
}

// UnitIDPtr returns the unit filter, or nil for all units
func (q UnitQuery) UnitIDPtr() *string {
	return optionalUnit(q.UnitID)
}

// ForecastCollectionQuery selects the number of series in a forecast collection
type ForecastCollectionQuery struct {
	UnitQuery
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=50"`
}

// InsightRequest asks for narration of one forecast series
type InsightRequest struct {
	UnitID string `json:"unit_id" binding:"omitempty,max=64"`
	Kind   string `json:"kind" binding:"required,oneof=global item territory"`
	Key    string `json:"key" binding:"required_unless=Kind global,max=200"`
}

func optionalUnit(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
