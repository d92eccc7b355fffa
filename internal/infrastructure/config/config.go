package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	Analytics AnalyticsConfig
	Scheduler SchedulerConfig
	Narration NarrationConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address of the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// CacheConfig holds analytics result cache settings
type CacheConfig struct {
	Enabled          bool
	TTL              time.Duration
	KeyPrefix        string
	InMemoryFallback bool // Use an in-process cache when Redis is unreachable
}

// WeightsConfig holds the RFM component weights
type WeightsConfig struct {
	Recency   float64
	Frequency float64
	Monetary  float64
}

// BandsConfig holds the RFM segment band edges as fractions of the population
type BandsConfig struct {
	Platinum   float64
	Gold       float64
	Silver     float64
	Occasional float64
}

// AnalyticsConfig holds aggregation and segmentation tuning
type AnalyticsConfig struct {
	FiscalYearStartMonth int
	DefaultTopN          int
	CustomerTopN         int
	ConcentrationTopK    int
	TrendMonths          int
	ForecastTopLimit     int
	MaxConcurrency       int
	MonetaryBasis        string // quantity, revenue
	Weights              WeightsConfig
	Bands                BandsConfig
	UOM                  UOMConfig
}

// UOMConfig converts delivered quantities of selected business units to one
// display unit through each line's gross weight. Units entries are
// "unitID" or "unitID:NativeUOM|NativeUOM"; lines already recorded in a
// native UOM are not converted.
type UOMConfig struct {
	DisplayUnit          string
	WeightPerDisplayUnit float64
	Units                []string
}

// Rules parses Units into native UOMs per business unit
func (u UOMConfig) Rules() (map[string][]string, error) {
	rules := make(map[string][]string, len(u.Units))
	for _, entry := range u.Units {
		id, natives, _ := strings.Cut(strings.TrimSpace(entry), ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("analytics.uom.units entry %q has no business unit", entry)
		}
		var list []string
		for _, n := range strings.Split(natives, "|") {
			if n = strings.TrimSpace(n); n != "" {
				list = append(list, n)
			}
		}
		rules[id] = list
	}
	return rules, nil
}

// SchedulerConfig holds cache warm-up scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	WarmCron          string // "minute hour * * *"
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// NarrationConfig holds the LLM narration collaborator settings
type NarrationConfig struct {
	Enabled           bool
	Provider          string
	Model             string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SALES_ prefix (e.g., SALES_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SALES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("cache.enabled"),
			TTL:              v.GetDuration("cache.ttl"),
			KeyPrefix:        v.GetString("cache.key_prefix"),
			InMemoryFallback: v.GetBool("cache.in_memory_fallback"),
		},
		Analytics: AnalyticsConfig{
			FiscalYearStartMonth: v.GetInt("analytics.fiscal_year_start_month"),
			DefaultTopN:          v.GetInt("analytics.default_top_n"),
			CustomerTopN:         v.GetInt("analytics.customer_top_n"),
			ConcentrationTopK:    v.GetInt("analytics.concentration_top_k"),
			TrendMonths:          v.GetInt("analytics.trend_months"),
			ForecastTopLimit:     v.GetInt("analytics.forecast_top_limit"),
			MaxConcurrency:       v.GetInt("analytics.max_concurrency"),
			MonetaryBasis:        v.GetString("analytics.monetary_basis"),
			Weights: WeightsConfig{
				Recency:   v.GetFloat64("analytics.weights.recency"),
				Frequency: v.GetFloat64("analytics.weights.frequency"),
				Monetary:  v.GetFloat64("analytics.weights.monetary"),
			},
			Bands: BandsConfig{
				Platinum:   v.GetFloat64("analytics.bands.platinum"),
				Gold:       v.GetFloat64("analytics.bands.gold"),
				Silver:     v.GetFloat64("analytics.bands.silver"),
				Occasional: v.GetFloat64("analytics.bands.occasional"),
			},
			UOM: UOMConfig{
				DisplayUnit:          v.GetString("analytics.uom.display_unit"),
				WeightPerDisplayUnit: v.GetFloat64("analytics.uom.weight_per_display_unit"),
				Units:                v.GetStringSlice("analytics.uom.units"),
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			WarmCron:          v.GetString("scheduler.warm_cron"),
			MaxConcurrentJobs: v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:     v.GetInt("scheduler.retry_attempts"),
			RetryDelay:        v.GetDuration("scheduler.retry_delay"),
		},
		Narration: NarrationConfig{
			Enabled:           v.GetBool("narration.enabled"),
			Provider:          v.GetString("narration.provider"),
			Model:             v.GetString("narration.model"),
			APIKey:            v.GetString("narration.api_key"),
			Timeout:           v.GetDuration("narration.timeout"),
			RequestsPerMinute: v.GetInt("narration.requests_per_minute"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sales-insight"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "sales"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "sales.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// An empty origin list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "sales:analytics:"
	}
	if cfg.Analytics.FiscalYearStartMonth == 0 {
		cfg.Analytics.FiscalYearStartMonth = 7
	}
	if cfg.Analytics.DefaultTopN == 0 {
		cfg.Analytics.DefaultTopN = 10
	}
	if cfg.Analytics.CustomerTopN == 0 {
		cfg.Analytics.CustomerTopN = 5
	}
	if cfg.Analytics.ConcentrationTopK == 0 {
		cfg.Analytics.ConcentrationTopK = 10
	}
	if cfg.Analytics.TrendMonths == 0 {
		cfg.Analytics.TrendMonths = 12
	}
	if cfg.Analytics.ForecastTopLimit == 0 {
		cfg.Analytics.ForecastTopLimit = 50
	}
	if cfg.Analytics.MaxConcurrency == 0 {
		cfg.Analytics.MaxConcurrency = 4
	}
	if cfg.Analytics.MonetaryBasis == "" {
		cfg.Analytics.MonetaryBasis = "quantity"
	}
	if cfg.Analytics.Weights == (WeightsConfig{}) {
		cfg.Analytics.Weights = WeightsConfig{Recency: 1, Frequency: 1, Monetary: 1}
	}
	if cfg.Analytics.Bands == (BandsConfig{}) {
		cfg.Analytics.Bands = BandsConfig{Platinum: 0.10, Gold: 0.30, Silver: 0.60, Occasional: 0.85}
	}
	if cfg.Analytics.UOM.DisplayUnit == "" {
		cfg.Analytics.UOM.DisplayUnit = "MT"
	}
	if cfg.Analytics.UOM.WeightPerDisplayUnit == 0 {
		cfg.Analytics.UOM.WeightPerDisplayUnit = 1000
	}
	if cfg.Scheduler.WarmCron == "" {
		cfg.Scheduler.WarmCron = "0 2 * * *"
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 3
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = time.Minute
	}
	if cfg.Narration.Provider == "" {
		cfg.Narration.Provider = "gemini"
	}
	if cfg.Narration.Model == "" {
		cfg.Narration.Model = "gemini-2.5-flash"
	}
	if cfg.Narration.Timeout == 0 {
		cfg.Narration.Timeout = 30 * time.Second
	}
	if cfg.Narration.RequestsPerMinute == 0 {
		cfg.Narration.RequestsPerMinute = 30
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "sales-insight"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.IsProduction() {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if err := c.Analytics.validate(); err != nil {
		return err
	}

	if c.Narration.Enabled && c.Narration.APIKey == "" {
		return fmt.Errorf("narration.api_key is required when narration is enabled")
	}
	if c.Narration.RequestsPerMinute < 0 {
		return fmt.Errorf("narration.requests_per_minute cannot be negative")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

func (a AnalyticsConfig) validate() error {
	if a.FiscalYearStartMonth < 1 || a.FiscalYearStartMonth > 12 {
		return fmt.Errorf("analytics.fiscal_year_start_month must be between 1 and 12, got %d", a.FiscalYearStartMonth)
	}
	switch a.MonetaryBasis {
	case "quantity", "revenue":
	default:
		return fmt.Errorf("analytics.monetary_basis must be quantity or revenue, got %q", a.MonetaryBasis)
	}

	w := a.Weights
	if w.Recency < 0 || w.Frequency < 0 || w.Monetary < 0 {
		return fmt.Errorf("analytics.weights cannot be negative")
	}
	if w.Recency+w.Frequency+w.Monetary <= 0 {
		return fmt.Errorf("analytics.weights must have a positive sum")
	}

	b := a.Bands
	edges := []float64{b.Platinum, b.Gold, b.Silver, b.Occasional}
	prev := 0.0
	for _, e := range edges {
		if e <= prev || e > 1 {
			return fmt.Errorf("analytics.bands must be strictly increasing within (0, 1], got %v", edges)
		}
		prev = e
	}

	if a.UOM.WeightPerDisplayUnit <= 0 {
		return fmt.Errorf("analytics.uom.weight_per_display_unit must be positive, got %v", a.UOM.WeightPerDisplayUnit)
	}
	if _, err := a.UOM.Rules(); err != nil {
		return err
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
