package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	analyticsapp "github.com/salesinsight/backend/internal/application/analytics"
	domain "github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/infrastructure/cache"
	"github.com/salesinsight/backend/internal/infrastructure/config"
	"github.com/salesinsight/backend/internal/infrastructure/logger"
	"github.com/salesinsight/backend/internal/infrastructure/narration"
	"github.com/salesinsight/backend/internal/infrastructure/persistence"
	"github.com/salesinsight/backend/internal/infrastructure/scheduler"
	"github.com/salesinsight/backend/internal/infrastructure/telemetry"
	"github.com/salesinsight/backend/internal/interfaces/http/handler"
	"github.com/salesinsight/backend/internal/interfaces/http/middleware"
	"github.com/salesinsight/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is fine; the process environment and config.toml still apply
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry providers are no-ops when disabled
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = telemetry.BridgeLogger(log, cfg.Telemetry.ServiceName, lp, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting Sales Insight",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(!cfg.IsProduction() || cfg.Telemetry.DBLogFullSQL),
	)
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem(cfg.Database.Driver),
	}, log)

	db, err := persistence.Open(&cfg.Database,
		persistence.WithGormLogger(gormLog),
		persistence.WithTracing(dbTracing),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == persistence.DriverSQLite {
		if err := persistence.EnsureSchema(db.DB); err != nil {
			log.Fatal("Failed to create SQLite schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	meter := mp.Meter("sales-insight")
	if mp.IsEnabled() {
		if sqlDB, err := db.DB.DB(); err == nil {
			if err := telemetry.RegisterPoolMetrics(meter, sqlDB); err != nil {
				log.Warn("Database pool metrics disabled", zap.Error(err))
			}
		}
	}
	metrics, err := telemetry.NewAnalyticsMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create analytics metrics", zap.Error(err))
	}

	store, err := cache.NewResultCacheFactory(cfg.Redis, cfg.Cache, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create result cache", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing result cache", zap.Error(err))
		}
	}()

	settings := settingsFromConfig(cfg)
	if err := settings.RFM.Validate(); err != nil {
		log.Fatal("Invalid RFM configuration", zap.Error(err))
	}

	opts := []analyticsapp.Option{
		analyticsapp.WithCache(store),
		analyticsapp.WithMetrics(metrics),
		analyticsapp.WithLogger(log),
		analyticsapp.WithSettings(settings),
	}

	var narrator domain.Narrator
	if cfg.Narration.Enabled {
		gemini, err := narration.NewGeminiNarrator(ctx, narration.GeminiConfig{
			APIKey:  cfg.Narration.APIKey,
			Model:   cfg.Narration.Model,
			Timeout: cfg.Narration.Timeout,
		})
		if err != nil {
			log.Warn("Narration disabled", zap.Error(err))
		} else {
			narrator = gemini
			if cfg.Narration.RequestsPerMinute > 0 {
				limit := rate.Every(time.Minute / time.Duration(cfg.Narration.RequestsPerMinute))
				opts = append(opts, analyticsapp.WithNarrationLimiter(rate.NewLimiter(limit, 1)))
			}
		}
	}

	uom, err := uomPolicyFromConfig(cfg.Analytics.UOM)
	if err != nil {
		log.Fatal("Invalid UOM configuration", zap.Error(err))
	}

	repo := persistence.NewGormTransactionRepository(db.DB, persistence.WithUOMPolicy(uom))
	forecasts := persistence.NewGormForecastSource(db.DB)
	resolver := analyticsapp.NewPeriodResolver(analyticsapp.FiscalCalendar{
		StartMonth: time.Month(cfg.Analytics.FiscalYearStartMonth),
	}, time.Now)

	salesService := analyticsapp.NewSalesAnalyticsService(repo, resolver, opts...)
	rfmService := analyticsapp.NewRFMService(repo, resolver, opts...)
	forecastService := analyticsapp.NewForecastService(repo, forecasts, narrator, opts...)
	insightService := analyticsapp.NewSalesInsightService(salesService, narrator, opts...)

	var (
		warmScheduler *scheduler.Scheduler
		warmTrigger   *scheduler.CronTrigger
	)
	if cfg.Scheduler.Enabled {
		warmScheduler, warmTrigger, err = startWarmUp(ctx, cfg.Scheduler,
			analyticsapp.NewWarmUpExecutor(salesService, rfmService, forecastService, log),
			salesService, log)
		if err != nil {
			log.Fatal("Failed to start cache warm-up", zap.Error(err))
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.Enabled = tp.IsEnabled()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName

	engine := router.NewEngine(router.EngineConfig{
		Logger:  log,
		CORS:    corsCfg,
		Tracing: tracingCfg,
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: mp,
			Enabled:       mp.IsEnabled(),
			Logger:        log,
		},
		RateLimiter:    limiter,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	router.RegisterAPI(engine, router.Handlers{
		System:    handler.NewSystemHandler(db),
		Sales:     handler.NewSalesHandler(salesService),
		Analytics: handler.NewAnalyticsHandler(salesService),
		RFM:       handler.NewRFMHandler(rfmService),
		Forecast:  handler.NewForecastHandler(forecastService),
		Insights:  handler.NewInsightHandler(insightService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if warmTrigger != nil {
		_ = warmTrigger.Stop(shutdownCtx)
	}
	if warmScheduler != nil {
		if err := warmScheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Warm-up scheduler did not stop cleanly", zap.Error(err))
		}
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logger": lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// startWarmUp runs the warm-up worker pool and its daily trigger
func startWarmUp(ctx context.Context, cfg config.SchedulerConfig, executor scheduler.JobExecutor, units scheduler.UnitProvider, log *zap.Logger) (*scheduler.Scheduler, *scheduler.CronTrigger, error) {
	hour, minute, err := scheduler.ParseCronSchedule(cfg.WarmCron)
	if err != nil {
		return nil, nil, err
	}

	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Enabled = true
	if cfg.MaxConcurrentJobs > 0 {
		schedCfg.MaxConcurrentJobs = cfg.MaxConcurrentJobs
	}
	if cfg.JobTimeout > 0 {
		schedCfg.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryAttempts >= 0 {
		schedCfg.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		schedCfg.RetryDelay = cfg.RetryDelay
	}

	sched, err := scheduler.NewScheduler(schedCfg, executor, log)
	if err != nil {
		return nil, nil, err
	}
	if err := sched.Start(ctx); err != nil {
		return nil, nil, err
	}

	triggerCfg := scheduler.DefaultCronTriggerConfig()
	triggerCfg.Hour = hour
	triggerCfg.Minute = minute
	trigger := scheduler.NewCronTrigger(triggerCfg, sched, units, log)
	if err := trigger.Start(ctx); err != nil {
		_ = sched.Stop(ctx)
		return nil, nil, err
	}

	log.Info("Cache warm-up scheduled",
		zap.Int("hour", hour),
		zap.Int("minute", minute),
		zap.Time("next_run", trigger.NextRunTime()),
	)
	return sched, trigger, nil
}

// settingsFromConfig maps configuration onto service settings.
// Zero values keep the service defaults.
func settingsFromConfig(cfg *config.Config) analyticsapp.Settings {
	return analyticsapp.Settings{
		DefaultTopN:       cfg.Analytics.DefaultTopN,
		CustomerTopN:      cfg.Analytics.CustomerTopN,
		ConcentrationTopK: cfg.Analytics.ConcentrationTopK,
		TrendMonths:       cfg.Analytics.TrendMonths,
		ForecastTopLimit:  cfg.Analytics.ForecastTopLimit,
		MaxConcurrency:    cfg.Analytics.MaxConcurrency,
		CacheTTL:          cfg.Cache.TTL,
		NarrationTimeout:  cfg.Narration.Timeout,
		RFM: analyticsapp.RFMOptions{
			Basis: domain.MonetaryBasis(cfg.Analytics.MonetaryBasis),
			Weights: domain.Weights{
				Recency:   cfg.Analytics.Weights.Recency,
				Frequency: cfg.Analytics.Weights.Frequency,
				Monetary:  cfg.Analytics.Weights.Monetary,
			},
			Bands: domain.BandConfig{
				Platinum:   cfg.Analytics.Bands.Platinum,
				Gold:       cfg.Analytics.Bands.Gold,
				Silver:     cfg.Analytics.Bands.Silver,
				Occasional: cfg.Analytics.Bands.Occasional,
			},
		},
	}
}

// uomPolicyFromConfig builds the quantity conversion applied by the ledger
func uomPolicyFromConfig(cfg config.UOMConfig) (domain.UOMPolicy, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return domain.UOMPolicy{}, err
	}
	if len(rules) == 0 {
		return domain.UOMPolicy{}, nil
	}

	policy := domain.UOMPolicy{
		DisplayUnit:          cfg.DisplayUnit,
		WeightPerDisplayUnit: decimal.NewFromFloat(cfg.WeightPerDisplayUnit),
		Units:                make(map[string]domain.UOMRule, len(rules)),
	}
	for id, natives := range rules {
		policy.Units[id] = domain.UOMRule{NativeUOMs: natives}
	}
	return policy, nil
}

func dbSystem(driver string) string {
	if driver == persistence.DriverSQLite {
		return "sqlite"
	}
	return "postgresql"
}
