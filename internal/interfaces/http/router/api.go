package router

import (
	"github.com/gin-gonic/gin"
	"github.com/salesinsight/backend/internal/infrastructure/logger"
	"github.com/salesinsight/backend/internal/interfaces/http/handler"
	"github.com/salesinsight/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers mounted by the API
type Handlers struct {
	System    *handler.SystemHandler
	Sales     *handler.SalesHandler
	Analytics *handler.AnalyticsHandler
	RFM       *handler.RFMHandler
	Forecast  *handler.ForecastHandler
	Insights  *handler.InsightHandler
}

// EngineConfig selects the engine-wide middleware
type EngineConfig struct {
	Logger         *zap.Logger
	CORS           middleware.CORSConfig
	Tracing        middleware.TracingConfig
	Metrics        middleware.HTTPMetricsConfig
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	MaxBodyBytes   int64
	TrustedProxies []string
}

// NewEngine builds a gin engine with the middleware chain in order:
// request ID, tracing, recovery, request logging, security headers, CORS,
// body limit, then rate limiting.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = middleware.DefaultMaxBodyBytes
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanEnricher(),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.Metrics),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	return engine
}

// RegisterAPI mounts /health and every /api/v1 route group
func RegisterAPI(engine *gin.Engine, h Handlers) *Router {
	engine.GET("/health", h.System.Health)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	sales := NewDomainGroup("sales", "/sales")
	sales.GET("/metrics", h.Sales.GetMetrics)
	sales.GET("/ytd", h.Sales.GetYTD)
	sales.GET("/mtd", h.Sales.GetMTD)
	sales.GET("/available-months", h.Sales.GetAvailableMonths)

	units := NewDomainGroup("units", "/units")
	units.GET("", h.Sales.GetBusinessUnits)

	analytics := NewDomainGroup("analytics", "/analytics")
	analytics.GET("/dimensions/:dimension", h.Analytics.GetDimension)
	analytics.GET("/regional", h.Analytics.GetRegional)
	analytics.GET("/customers", h.Analytics.GetCustomers)
	analytics.GET("/payment-modes", h.Analytics.GetPaymentModes)
	analytics.GET("/insights/:kind", h.Insights.GetInsight)

	rfm := NewDomainGroup("rfm", "/rfm")
	rfm.GET("/analysis", h.RFM.GetAnalysis)
	rfm.GET("/segments", h.RFM.GetSegments)

	forecast := NewDomainGroup("forecast", "/forecast")
	forecast.GET("/global", h.Forecast.GetGlobal)
	forecast.GET("/items", h.Forecast.GetItems)
	forecast.GET("/territories", h.Forecast.GetTerritories)
	forecast.POST("/insights", h.Forecast.PostInsights)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(system).
		Register(sales).
		Register(units).
		Register(analytics).
		Register(rfm).
		Register(forecast)
	r.Setup()
	return r
}
