// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/pkg/valueobjects"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	minJWTLength = 32
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT"`
	Port           string      `mapstructure:"PORT"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS"`
	Version        string      `mapstructure:"VERSION"`
	JwtSecretKey   string      `mapstructure:"JWT_SECRET_KEY"`
	// TrustedProxies is a list of CIDR ranges or IPs of trusted reverse proxies.
	// If empty, X-Forwarded-For headers are ignored.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
}

// DatabaseConfig holds PostgreSQL database connection details.
type DatabaseConfig struct {
	Host           string `mapstructure:"HOST"`
	Port           int    `mapstructure:"PORT"`
	User           string `mapstructure:"USER"`
	Password       string `mapstructure:"PASSWORD"`
	Name           string `mapstructure:"NAME"`
	SSLMode        string `mapstructure:"SSL_MODE"`
	MaxConnections int    `mapstructure:"MAX_CONNECTIONS"`
	MinConnections int    `mapstructure:"MIN_CONNECTIONS"`
	ConnMaxLife    string `mapstructure:"CONN_MAX_LIFE"`
}

// URL returns a postgres:// connection URL suitable for golang-migrate and pgxpool.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Address      string `mapstructure:"ADDRESS"`
	Password     string `mapstructure:"PASSWORD"`
	DB           int    `mapstructure:"DB"`
	UseTLS       bool   `mapstructure:"USE_TLS"`
	PoolSize     int    `mapstructure:"POOL_SIZE"`
	MinIdleConns int    `mapstructure:"MIN_IDLE_CONNS"`
}

// SettlementConfig holds the settlement calculation policy.
type SettlementConfig struct {
	// Timezone in which a year-month period is interpreted.
	Timezone string `mapstructure:"TIMEZONE"`
	// Deduction rates applied when a record carries no explicit deduction amount.
	AbsenceDeductionRate    decimal.Decimal `mapstructure:"ABSENCE_DEDUCTION_RATE"`
	SubstituteDeductionRate decimal.Decimal `mapstructure:"SUBSTITUTE_DEDUCTION_RATE"`
	Currency                string          `mapstructure:"CURRENCY"`
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
func (c SettlementConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logger.GetLogger().Warnw("Unknown settlement timezone, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Maximum fare quote requests per user per window.
	QuoteRequestsPerMinute int `mapstructure:"QUOTE_REQUESTS_PER_MINUTE"`
	WindowSeconds          int `mapstructure:"WINDOW_SECONDS"`
}

// EmailConfig holds configuration for settlement notification emails.
type EmailConfig struct {
	Enabled      bool   `mapstructure:"ENABLED"`
	FromAddress  string `mapstructure:"FROM_ADDRESS"`
	FromName     string `mapstructure:"FROM_NAME"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
}

// StatementArchiveConfig holds the S3-compatible bucket used for paid statements.
type StatementArchiveConfig struct {
	Enabled         bool   `mapstructure:"ENABLED"`
	Endpoint        string `mapstructure:"ENDPOINT"`
	Region          string `mapstructure:"REGION"`
	Bucket          string `mapstructure:"BUCKET"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server           ServerConfig           `mapstructure:"SERVER"`
	Database         DatabaseConfig         `mapstructure:"DATABASE"`
	Redis            RedisConfig            `mapstructure:"REDIS"`
	Settlement       SettlementConfig       `mapstructure:"SETTLEMENT"`
	RateLimit        RateLimitConfig        `mapstructure:"RATE_LIMIT"`
	Email            EmailConfig            `mapstructure:"EMAIL"`
	StatementArchive StatementArchiveConfig `mapstructure:"STATEMENT_ARCHIVE"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.TRUSTED_PROXIES", []string{})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "dispatch")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_CONNECTIONS", 10)
	v.SetDefault("DATABASE.MIN_CONNECTIONS", 2)
	v.SetDefault("DATABASE.CONN_MAX_LIFE", "1h")
	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.POOL_SIZE", 5)
	v.SetDefault("REDIS.MIN_IDLE_CONNS", 1)
	v.SetDefault("SETTLEMENT.TIMEZONE", "Asia/Seoul")
	v.SetDefault("SETTLEMENT.ABSENCE_DEDUCTION_RATE", "0.10")
	v.SetDefault("SETTLEMENT.SUBSTITUTE_DEDUCTION_RATE", "0.05")
	v.SetDefault("SETTLEMENT.CURRENCY", "KRW")
	v.SetDefault("RATE_LIMIT.QUOTE_REQUESTS_PER_MINUTE", 60)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("EMAIL.ENABLED", false)
	v.SetDefault("EMAIL.FROM_NAME", "Dispatch Settlement")
	v.SetDefault("STATEMENT_ARCHIVE.ENABLED", false)
	v.SetDefault("STATEMENT_ARCHIVE.REGION", "auto")
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, unmarshals and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		{"SERVER.ENVIRONMENT", "SERVER_ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"SERVER.JWT_SECRET_KEY", "JWT_SECRET_KEY"},
		{"SERVER.TRUSTED_PROXIES", "TRUSTED_PROXIES"},
		{"SERVER.VERSION", "APP_VERSION"},
		{"DATABASE.HOST", "DB_HOST"},
		{"DATABASE.PORT", "DB_PORT"},
		{"DATABASE.USER", "DB_USER"},
		{"DATABASE.PASSWORD", "DB_PASSWORD"},
		{"DATABASE.NAME", "DB_NAME"},
		{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
		{"DATABASE.MAX_CONNECTIONS", "DB_MAX_CONNECTIONS"},
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		{"SETTLEMENT.TIMEZONE", "SETTLEMENT_TIMEZONE"},
		{"SETTLEMENT.ABSENCE_DEDUCTION_RATE", "SETTLEMENT_ABSENCE_DEDUCTION_RATE"},
		{"SETTLEMENT.SUBSTITUTE_DEDUCTION_RATE", "SETTLEMENT_SUBSTITUTE_DEDUCTION_RATE"},
		{"SETTLEMENT.CURRENCY", "SETTLEMENT_CURRENCY"},
		{"RATE_LIMIT.QUOTE_REQUESTS_PER_MINUTE", "RATE_LIMIT_QUOTE_REQUESTS_PER_MINUTE"},
		{"RATE_LIMIT.WINDOW_SECONDS", "RATE_LIMIT_WINDOW_SECONDS"},
		{"EMAIL.ENABLED", "EMAIL_ENABLED"},
		{"EMAIL.FROM_ADDRESS", "EMAIL_FROM_ADDRESS"},
		{"EMAIL.FROM_NAME", "EMAIL_FROM_NAME"},
		{"EMAIL.RESEND_API_KEY", "RESEND_API_KEY"},
		{"STATEMENT_ARCHIVE.ENABLED", "STATEMENT_ARCHIVE_ENABLED"},
		{"STATEMENT_ARCHIVE.ENDPOINT", "STATEMENT_ARCHIVE_ENDPOINT"},
		{"STATEMENT_ARCHIVE.REGION", "STATEMENT_ARCHIVE_REGION"},
		{"STATEMENT_ARCHIVE.BUCKET", "STATEMENT_ARCHIVE_BUCKET"},
		{"STATEMENT_ARCHIVE.ACCESS_KEY_ID", "STATEMENT_ARCHIVE_ACCESS_KEY_ID"},
		{"STATEMENT_ARCHIVE.SECRET_ACCESS_KEY", "STATEMENT_ARCHIVE_SECRET_ACCESS_KEY"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"db_host", v.GetString("DATABASE.HOST"),
		"settlement_timezone", v.GetString("SETTLEMENT.TIMEZONE"),
	)

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decimalHook())); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	log := logger.GetLogger()

	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.IsProduction() && len(cfg.Server.JwtSecretKey) < minJWTLength {
		return fmt.Errorf("JWT secret key must be at least %d characters long", minJWTLength)
	}
	if cfg.Server.JwtSecretKey == "" {
		log.Warn("JWT secret key is not set; authenticated routes will reject every request")
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.Database.Password == "" {
		log.Warn("Database password is not set. Ensure this is intended (e.g., using trusted auth).")
	}

	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis address is required")
	}

	if err := validateSettlementConfig(&cfg.Settlement); err != nil {
		return err
	}

	if cfg.RateLimit.QuoteRequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit quote requests per minute must be positive")
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window seconds must be positive")
	}

	if cfg.Email.Enabled && (cfg.Email.ResendAPIKey == "" || cfg.Email.FromAddress == "") {
		log.Warn("Email enabled without resend API key or from address, disabling settlement emails")
		cfg.Email.Enabled = false
	}

	if cfg.StatementArchive.Enabled && cfg.StatementArchive.Bucket == "" {
		return fmt.Errorf("statement archive bucket is required when the archive is enabled")
	}

	return nil
}

func validateSettlementConfig(cfg *SettlementConfig) error {
	one := decimal.NewFromInt(1)
	rates := map[string]decimal.Decimal{
		"absence":    cfg.AbsenceDeductionRate,
		"substitute": cfg.SubstituteDeductionRate,
	}
	for name, rate := range rates {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return fmt.Errorf("%s deduction rate must be within [0, 1], got %s", name, rate)
		}
	}
	if cfg.Currency == "" {
		return fmt.Errorf("settlement currency is required")
	}
	currency, err := valueobjects.ParseCurrency(cfg.Currency)
	if err != nil {
		return fmt.Errorf("invalid settlement currency: %w", err)
	}
	cfg.Currency = string(currency)
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("invalid settlement timezone %q: %w", cfg.Timezone, err)
		}
	}
	return nil
}

// containsWildcard checks if the list of allowed origins contains the wildcard "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
