package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/viper"
)

// ErrDatabaseURLMissing is returned when DATABASE_URL is not set.
var ErrDatabaseURLMissing = errors.New("DATABASE_URL is required")

// Config holds all configuration for the application
type Config struct {
	DB        DatabaseConfig
	App       AppConfig
	Logger    LoggerConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	URL      string `validate:"required"`
	Host     string `validate:"required"`
	Port     uint16 `validate:"required"`
	Name     string `validate:"required"`
	User     string `validate:"required"`
	Password string

	ConnectRetryDelay time.Duration `validate:"gt=0"`
	MaxOpenConns      int           `validate:"gte=1"`
	MaxIdleConns      int           `validate:"gte=0"`
	ConnMaxLifetime   int           `validate:"gte=0"` // seconds
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	Port                   string `validate:"required,numeric"`
	Environment            string `validate:"required"`
	ShutdownTimeoutSeconds int    `validate:"gte=1"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `validate:"oneof=debug info warn warning error dpanic panic fatal"`
	Format           string  `validate:"oneof=json console"`
	OutputPath       string
	SlowQuerySeconds float64 `validate:"gte=0"`
	EnableSampling   bool
	ServiceName      string
	ServiceVersion   string
}

// RateLimitConfig holds configuration for the HTTP rate limiter
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64 `validate:"gt=0"`
	BurstCapacity     int     `validate:"gte=1"`
}

// RedisConfig holds configuration for the Redis client backing the rate limiter
type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads configuration from an optional app.env file in path and
// from environment variables. DATABASE_URL is mandatory.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	rawURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if rawURL == "" {
		return nil, ErrDatabaseURLMissing
	}

	db, err := ParseDatabaseURL(rawURL)
	if err != nil {
		return nil, err
	}

	var config Config

	config.DB = db
	config.DB.ConnectRetryDelay = v.GetDuration("DB_CONNECT_RETRY_DELAY")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")

	config.App.Port = v.GetString("PORT")
	config.App.Environment = v.GetString("APP_ENV")
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	config.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	config.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.BurstCapacity = v.GetInt("RATE_LIMIT_BURST")

	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("DB_CONNECT_RETRY_DELAY", "2s")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)

	// Logger defaults
	_ = v.BindEnv("APP_ENV")
	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-crud-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
}

// ParseDatabaseURL extracts the connection parameters from a PostgreSQL URL
// (postgres:// or postgresql://). Host, user and database name must appear in
// the URL itself; PG* environment variables and OS defaults are not consulted
// for them. The port defaults to 5432.
func ParseDatabaseURL(raw string) (DatabaseConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	switch {
	case u.Scheme != "postgres" && u.Scheme != "postgresql":
		return DatabaseConfig{}, errors.New("invalid DATABASE_URL: scheme must be postgres or postgresql")
	case u.Hostname() == "":
		return DatabaseConfig{}, errors.New("invalid DATABASE_URL: host is required")
	case u.User == nil || u.User.Username() == "":
		return DatabaseConfig{}, errors.New("invalid DATABASE_URL: user is required")
	case strings.TrimPrefix(u.Path, "/") == "":
		return DatabaseConfig{}, errors.New("invalid DATABASE_URL: database name is required")
	}

	pc, err := pgconn.ParseConfig(raw)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	return DatabaseConfig{
		URL:      raw,
		Host:     pc.Host,
		Port:     pc.Port,
		Name:     pc.Database,
		User:     pc.User,
		Password: pc.Password,
	}, nil
}

// Validate checks the loaded configuration for invalid values
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.RateLimit.Enabled && (c.Redis.Host == "" || c.Redis.Port == "") {
		return errors.New("invalid configuration: REDIS_HOST and REDIS_PORT are required when rate limiting is enabled")
	}
	return nil
}

// Address returns the HTTP listen address
func (c *AppConfig) Address() string {
	return ":" + c.Port
}

// ShutdownTimeout returns the graceful shutdown budget
func (c *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DSN returns the connection string handed to the PostgreSQL driver
func (c *DatabaseConfig) DSN() string {
	return c.URL
}

// Target returns host:port/dbname for logging; credentials are omitted.
func (c *DatabaseConfig) Target() string {
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Name)
}
