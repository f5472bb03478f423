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
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	Sync        SyncConfig
	Batch       BatchConfig
	Scheduler   SchedulerConfig
	Shopify     ShopifyConfig
	WooCommerce WooCommerceConfig
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
}

// Database driver names accepted by DatabaseConfig.Driver
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"
)

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string // sqlite only
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings for the coordination store
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SyncConfig holds conflict resolution and locking settings
type SyncConfig struct {
	// LeaseTTL bounds how long a crashed run can block its resources
	LeaseTTL time.Duration
	// PriceThresholdPercent is the relative difference below which price
	// conflicts are ignored
	PriceThresholdPercent float64
	// ManualOverrideWindow is how far back manual ledger entries win
	// price conflicts
	ManualOverrideWindow time.Duration
	// ExchangeRate converts target platform prices into the source currency
	ExchangeRate float64
	// MarginMultiplier is applied when recalculating target prices from
	// the source price
	MarginMultiplier float64
	// ReadMaxAttempts bounds platform read attempts during the Reading phase
	ReadMaxAttempts int
	// ReadRetryDelay is the pause between platform read attempts
	ReadRetryDelay time.Duration
}

// BatchConfig holds batch executor settings
type BatchConfig struct {
	BatchSize            int
	InterBatchDelay      time.Duration
	FailFast             bool
	MaxRetries           int
	InitialRetryDelay    time.Duration
	MaxRetryDelay        time.Duration
	RetryMultiplier      float64
	BreakerFailureThresh int
	BreakerCooldown      time.Duration
}

// SchedulerConfig holds sync scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	QuantityInterval  time.Duration
	PriceInterval     time.Duration
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	HistoryLimit      int
}

// ShopifyConfig holds source platform credentials
type ShopifyConfig struct {
	ShopDomain     string
	AccessToken    string
	APIVersion     string
	LocationID     int64
	Currency       string
	TimeoutSeconds int
}

// WooCommerceConfig holds target platform credentials
type WooCommerceConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Currency       string
	TimeoutSeconds int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHOPBRIDGE_ prefix (e.g., SHOPBRIDGE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/shopbridge")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("SHOPBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			FilePath:        v.GetString("database.file_path"),
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
		Sync: SyncConfig{
			LeaseTTL:              v.GetDuration("sync.lease_ttl"),
			PriceThresholdPercent: v.GetFloat64("sync.price_threshold_percent"),
			ManualOverrideWindow:  v.GetDuration("sync.manual_override_window"),
			ExchangeRate:          v.GetFloat64("sync.exchange_rate"),
			MarginMultiplier:      v.GetFloat64("sync.margin_multiplier"),
			ReadMaxAttempts:       v.GetInt("sync.read_max_attempts"),
			ReadRetryDelay:        v.GetDuration("sync.read_retry_delay"),
		},
		Batch: BatchConfig{
			BatchSize:            v.GetInt("batch.batch_size"),
			InterBatchDelay:      v.GetDuration("batch.inter_batch_delay"),
			FailFast:             v.GetBool("batch.fail_fast"),
			MaxRetries:           v.GetInt("batch.max_retries"),
			InitialRetryDelay:    v.GetDuration("batch.initial_retry_delay"),
			MaxRetryDelay:        v.GetDuration("batch.max_retry_delay"),
			RetryMultiplier:      v.GetFloat64("batch.retry_multiplier"),
			BreakerFailureThresh: v.GetInt("batch.breaker_failure_threshold"),
			BreakerCooldown:      v.GetDuration("batch.breaker_cooldown"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			QuantityInterval:  v.GetDuration("scheduler.quantity_interval"),
			PriceInterval:     v.GetDuration("scheduler.price_interval"),
			MaxConcurrentJobs: v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			HistoryLimit:      v.GetInt("scheduler.history_limit"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:     v.GetString("shopify.shop_domain"),
			AccessToken:    v.GetString("shopify.access_token"),
			APIVersion:     v.GetString("shopify.api_version"),
			LocationID:     v.GetInt64("shopify.location_id"),
			Currency:       v.GetString("shopify.currency"),
			TimeoutSeconds: v.GetInt("shopify.timeout_seconds"),
		},
		WooCommerce: WooCommerceConfig{
			BaseURL:        v.GetString("woocommerce.base_url"),
			ConsumerKey:    v.GetString("woocommerce.consumer_key"),
			ConsumerSecret: v.GetString("woocommerce.consumer_secret"),
			Currency:       v.GetString("woocommerce.currency"),
			TimeoutSeconds: v.GetInt("woocommerce.timeout_seconds"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shopbridge-syncd"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DatabaseDriverPostgres
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
		cfg.Database.DBName = "shopbridge"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.FilePath == "" {
		cfg.Database.FilePath = "shopbridge.db"
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
	if cfg.Sync.LeaseTTL == 0 {
		cfg.Sync.LeaseTTL = 2 * time.Minute
	}
	if cfg.Sync.PriceThresholdPercent == 0 {
		cfg.Sync.PriceThresholdPercent = 5.0
	}
	if cfg.Sync.ManualOverrideWindow == 0 {
		cfg.Sync.ManualOverrideWindow = 24 * time.Hour
	}
	if cfg.Sync.ExchangeRate == 0 {
		cfg.Sync.ExchangeRate = 1.0
	}
	if cfg.Sync.MarginMultiplier == 0 {
		cfg.Sync.MarginMultiplier = 1.0
	}
	if cfg.Sync.ReadMaxAttempts == 0 {
		cfg.Sync.ReadMaxAttempts = 3
	}
	if cfg.Sync.ReadRetryDelay == 0 {
		cfg.Sync.ReadRetryDelay = 2 * time.Second
	}
	if cfg.Batch.BatchSize == 0 {
		cfg.Batch.BatchSize = 100
	}
	if cfg.Batch.InterBatchDelay == 0 {
		cfg.Batch.InterBatchDelay = time.Second
	}
	if cfg.Batch.MaxRetries == 0 {
		cfg.Batch.MaxRetries = 3
	}
	if cfg.Batch.InitialRetryDelay == 0 {
		cfg.Batch.InitialRetryDelay = 500 * time.Millisecond
	}
	if cfg.Batch.MaxRetryDelay == 0 {
		cfg.Batch.MaxRetryDelay = 10 * time.Second
	}
	if cfg.Batch.RetryMultiplier == 0 {
		cfg.Batch.RetryMultiplier = 2.0
	}
	if cfg.Batch.BreakerFailureThresh == 0 {
		cfg.Batch.BreakerFailureThresh = 5
	}
	if cfg.Batch.BreakerCooldown == 0 {
		cfg.Batch.BreakerCooldown = 30 * time.Second
	}
	if cfg.Scheduler.QuantityInterval == 0 {
		cfg.Scheduler.QuantityInterval = 15 * time.Minute
	}
	if cfg.Scheduler.PriceInterval == 0 {
		cfg.Scheduler.PriceInterval = time.Hour
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 2
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.HistoryLimit == 0 {
		cfg.Scheduler.HistoryLimit = 50
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-01"
	}
	if cfg.Shopify.Currency == "" {
		cfg.Shopify.Currency = "USD"
	}
	if cfg.Shopify.TimeoutSeconds == 0 {
		cfg.Shopify.TimeoutSeconds = 30
	}
	if cfg.WooCommerce.Currency == "" {
		cfg.WooCommerce.Currency = "EUR"
	}
	if cfg.WooCommerce.TimeoutSeconds == 0 {
		cfg.WooCommerce.TimeoutSeconds = 30
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != DatabaseDriverPostgres && c.Database.Driver != DatabaseDriverSQLite {
		return fmt.Errorf("database.driver must be %q or %q", DatabaseDriverPostgres, DatabaseDriverSQLite)
	}

	// Validate connection pool settings
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

	if c.Sync.PriceThresholdPercent < 0 {
		return fmt.Errorf("sync.price_threshold_percent cannot be negative")
	}
	if c.Sync.ExchangeRate <= 0 {
		return fmt.Errorf("sync.exchange_rate must be positive")
	}
	if c.Sync.MarginMultiplier <= 0 {
		return fmt.Errorf("sync.margin_multiplier must be positive")
	}
	if c.Batch.BatchSize <= 0 {
		return fmt.Errorf("batch.batch_size must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Driver == DatabaseDriverPostgres {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if c.Shopify.AccessToken == "" {
			return fmt.Errorf("shopify.access_token is required in production")
		}
		if c.WooCommerce.ConsumerSecret == "" {
			return fmt.Errorf("woocommerce.consumer_secret is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DatabaseDriverSQLite {
		return d.FilePath
	}

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

// RedisAddr returns the host:port address of the coordination store
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
