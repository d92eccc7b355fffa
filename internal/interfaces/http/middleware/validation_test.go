package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/salesinsight/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/analytics/dimensions/:dimension", func(c *gin.Context) {
		var uri dto.DimensionURI
		if err := c.ShouldBindUri(&uri); err != nil {
			HandleValidationError(c, err)
			return
		}
		var q dto.PeriodQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.String(http.StatusOK, "ok")
	})
	router.POST("/forecast/insights", func(c *gin.Context) {
		var req dto.InsightRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return router
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	type probe struct {
		Period    string `form:"period" binding:"yearmonth"`
		Dimension string `form:"dimension" binding:"dimension"`
	}
	assert.NoError(t, v.Struct(probe{Period: "2024-03", Dimension: "Region"}))
	assert.Error(t, v.Struct(probe{Period: "2024-13", Dimension: "region"}))
	assert.Error(t, v.Struct(probe{Period: "2024-03", Dimension: "channel"}))
}

func TestValidation_QueryAndURI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newValidationRouter()

	tests := []struct {
		name      string
		url       string
		wantCode  string
		wantField string
	}{
		{"valid request", "/analytics/dimensions/region?period=2024-03", "", ""},
		{"unknown dimension", "/analytics/dimensions/channel", dto.ErrCodeValidation, "dimension"},
		{"malformed period", "/analytics/dimensions/item?period=03-2024", dto.ErrCodeValidation, "period"},
		{"month out of range", "/analytics/dimensions/item?month=13", dto.ErrCodeValidation, "month"},
		{"non-numeric year", "/analytics/dimensions/item?year=abc", dto.ErrCodeInvalidInput, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if tt.wantCode == "" {
				assert.Equal(t, http.StatusOK, w.Code)
				return
			}
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			if tt.wantField != "" {
				require.Len(t, resp.Error.Details, 1)
				assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
			}
		})
	}
}

func TestValidation_InsightBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newValidationRouter()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/forecast/insights", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("global needs no key", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post(`{"kind":"global"}`).Code)
	})

	t.Run("item requires a key", func(t *testing.T) {
		w := post(`{"kind":"item"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "key", resp.Error.Details[0].Field)
		assert.Equal(t, "This field is required unless Kind is global", resp.Error.Details[0].Message)
	})

	t.Run("unknown kind", func(t *testing.T) {
		w := post(`{"kind":"channel","key":"x"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "Must be one of: global item territory", resp.Error.Details[0].Message)
	})

	t.Run("broken json", func(t *testing.T) {
		w := post(`{"kind":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
	})
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}
