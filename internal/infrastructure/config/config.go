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
	JWT       JWTConfig
	Auth      AuthConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	LLM       LLMConfig
	SEO       SEOConfig
	WordPress WordPressConfig
	Pipeline  PipelineConfig
	Storage   StorageConfig
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

// IsProduction reports whether the app runs in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Path            string // sqlite file path
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	KeywordTTL time.Duration
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
}

// AuthConfig holds the dashboard admin credentials.
type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string // bcrypt
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// SchedulerConfig holds the pipeline job queue configuration
type SchedulerConfig struct {
	Enabled       bool
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	CronEnabled   bool
}

// LLMConfig configures the generative model client.
type LLMConfig struct {
	Provider          string // gemini or offline
	APIKey            string
	Model             string
	RequestsPerMinute int
	MaxOutputTokens   int
}

// SEOConfig configures keyword and SERP data sources.
type SEOConfig struct {
	SerpAPIKey string
	SemrushKey string
	AhrefsKey  string
	FreeTools  bool
	Country    string
	Language   string
	Timeout    time.Duration
}

// WordPressConfig configures the publishing target.
type WordPressConfig struct {
	URL      string
	Username string
	Password string
	UseJWT   bool
	Timeout  time.Duration
}

// Configured reports whether enough is set to publish.
func (w WordPressConfig) Configured() bool {
	return w.URL != "" && w.Username != "" && w.Password != ""
}

// PipelineConfig tunes agent execution.
type PipelineConfig struct {
	AgentMaxRetries      int
	AgentTimeout         time.Duration
	RetryBackoffBase     time.Duration
	DefaultPublishStatus string
	ResultsDir           string
}

// StorageConfig configures the run archive.
type StorageConfig struct {
	Enabled           bool // S3 when true, local directory otherwise
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
	LocalDir          string
}

// TelemetryConfig holds OpenTelemetry and metrics configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry tracing
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
	MetricsEnabled    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SEOBLOG_ prefix (e.g., SEOBLOG_LLM_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SEOBLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// switches that default to on
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.cron_enabled", true)
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("seo.free_tools", false)
	v.SetDefault("telemetry.metrics_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:    v.GetBool("redis.enabled"),
			Host:       v.GetString("redis.host"),
			Port:       v.GetInt("redis.port"),
			Password:   v.GetString("redis.password"),
			DB:         v.GetInt("redis.db"),
			KeywordTTL: v.GetDuration("redis.keyword_ttl"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
		},
		Auth: AuthConfig{
			AdminUsername:     v.GetString("auth.admin_username"),
			AdminPasswordHash: v.GetString("auth.admin_password_hash"),
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
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			Workers:       v.GetInt("scheduler.workers"),
			QueueSize:     v.GetInt("scheduler.queue_size"),
			JobTimeout:    v.GetDuration("scheduler.job_timeout"),
			RetryAttempts: v.GetInt("scheduler.retry_attempts"),
			RetryDelay:    v.GetDuration("scheduler.retry_delay"),
			CronEnabled:   v.GetBool("scheduler.cron_enabled"),
		},
		LLM: LLMConfig{
			Provider:          v.GetString("llm.provider"),
			APIKey:            v.GetString("llm.api_key"),
			Model:             v.GetString("llm.model"),
			RequestsPerMinute: v.GetInt("llm.requests_per_minute"),
			MaxOutputTokens:   v.GetInt("llm.max_output_tokens"),
		},
		SEO: SEOConfig{
			SerpAPIKey: v.GetString("seo.serpapi_key"),
			SemrushKey: v.GetString("seo.semrush_key"),
			AhrefsKey:  v.GetString("seo.ahrefs_key"),
			FreeTools:  v.GetBool("seo.free_tools"),
			Country:    v.GetString("seo.country"),
			Language:   v.GetString("seo.language"),
			Timeout:    v.GetDuration("seo.timeout"),
		},
		WordPress: WordPressConfig{
			URL:      strings.TrimRight(v.GetString("wordpress.url"), "/"),
			Username: v.GetString("wordpress.username"),
			Password: v.GetString("wordpress.password"),
			UseJWT:   v.GetBool("wordpress.use_jwt"),
			Timeout:  v.GetDuration("wordpress.timeout"),
		},
		Pipeline: PipelineConfig{
			AgentMaxRetries:      v.GetInt("pipeline.agent_max_retries"),
			AgentTimeout:         v.GetDuration("pipeline.agent_timeout"),
			RetryBackoffBase:     v.GetDuration("pipeline.retry_backoff_base"),
			DefaultPublishStatus: v.GetString("pipeline.default_publish_status"),
			ResultsDir:           v.GetString("pipeline.results_dir"),
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("storage.enabled"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			LocalDir:          v.GetString("storage.local_dir"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
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
		cfg.App.Name = "seoblog"
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
	if cfg.Database.Path == "" {
		cfg.Database.Path = "seoblog.db"
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
		cfg.Database.DBName = "seoblog"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
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
	if cfg.Redis.KeywordTTL == 0 {
		cfg.Redis.KeywordTTL = 24 * time.Hour
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 168 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "seoblog"
	}
	if cfg.Auth.AdminUsername == "" {
		cfg.Auth.AdminUsername = "admin"
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
	// progress streams stay open, so writes get more room than reads
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// An empty origin list means no cross-origin requests until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 2
	}
	if cfg.Scheduler.QueueSize == 0 {
		cfg.Scheduler.QueueSize = 50
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 1
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = time.Minute
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-1.5-flash"
	}
	if cfg.LLM.RequestsPerMinute == 0 {
		cfg.LLM.RequestsPerMinute = 15
	}
	if cfg.LLM.MaxOutputTokens == 0 {
		cfg.LLM.MaxOutputTokens = 8192
	}
	if cfg.SEO.Country == "" {
		cfg.SEO.Country = "us"
	}
	if cfg.SEO.Language == "" {
		cfg.SEO.Language = "en"
	}
	if cfg.SEO.Timeout == 0 {
		cfg.SEO.Timeout = 30 * time.Second
	}
	if cfg.WordPress.Timeout == 0 {
		cfg.WordPress.Timeout = 30 * time.Second
	}
	if cfg.Pipeline.AgentMaxRetries == 0 {
		cfg.Pipeline.AgentMaxRetries = 3
	}
	if cfg.Pipeline.AgentTimeout == 0 {
		cfg.Pipeline.AgentTimeout = 120 * time.Second
	}
	if cfg.Pipeline.RetryBackoffBase == 0 {
		cfg.Pipeline.RetryBackoffBase = time.Second
	}
	if cfg.Pipeline.DefaultPublishStatus == "" {
		cfg.Pipeline.DefaultPublishStatus = "draft"
	}
	if cfg.Pipeline.ResultsDir == "" {
		cfg.Pipeline.ResultsDir = "."
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "seoblog-archive"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./archive"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "seoblog"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
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

	switch c.LLM.Provider {
	case "gemini", "offline":
	default:
		return fmt.Errorf("llm.provider must be gemini or offline, got %q", c.LLM.Provider)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute cannot be negative")
	}

	switch c.Pipeline.DefaultPublishStatus {
	case "draft", "publish", "pending", "private":
	default:
		return fmt.Errorf("pipeline.default_publish_status %q is not a WordPress post status", c.Pipeline.DefaultPublishStatus)
	}
	if c.Pipeline.AgentMaxRetries < 1 {
		return fmt.Errorf("pipeline.agent_max_retries must be at least 1")
	}

	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("scheduler.workers must be positive")
	}

	if c.Production() {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Auth.AdminPasswordHash == "" {
			return fmt.Errorf("auth.admin_password_hash is required in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Production reports whether the app runs in production mode.
func (c *Config) Production() bool {
	return c.App.IsProduction()
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
