// Package config loads service settings from the environment through viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Adjustment modes
const (
	// AdjustmentSnapshot applies physical - recorded, where recorded was
	// captured when the line was written.
	AdjustmentSnapshot = "snapshot"
	// AdjustmentAbsolute forces stock to the physical count at validation.
	AdjustmentAbsolute = "absolute"
)

// Config groups all settings of the server, worker and seed binaries.
type Config struct {
	App    AppConfig
	DB     DBConfig
	HTTP   HTTPConfig
	JWT    JWTConfig
	Ledger LedgerConfig
	Worker WorkerConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env      string
	LogLevel string
}

// IsDevelopment reports whether logs should be human readable.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DBConfig holds PostgreSQL settings. DatabaseURL wins over the parts.
type DBConfig struct {
	DatabaseURL      string
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
	Migrate          bool
}

// ConnectionString returns DATABASE_URL when set, otherwise DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds a postgres URL with the password escaped.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	Idempotency     bool
	IdempotencyTTL  time.Duration
}

// Addr returns host:port.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// LedgerConfig holds stock engine settings.
type LedgerConfig struct {
	AdjustmentMode string
	LowStockRule   string
}

// WorkerConfig holds background job settings.
type WorkerConfig struct {
	OutboxInterval  time.Duration
	OutboxBatchSize int
	CleanupInterval time.Duration
}

// Load reads the configuration. Environment variables win over an
// optional .env file in the working directory.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			DatabaseURL:      v.GetString("DATABASE_URL"),
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetInt("DB_PORT"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			Name:             v.GetString("DB_NAME"),
			SSLMode:          v.GetString("DB_SSLMODE"),
			MaxConns:         v.GetInt32("DB_MAX_CONNS"),
			MinConns:         v.GetInt32("DB_MIN_CONNS"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
			Migrate:          v.GetBool("DB_MIGRATE"),
		},
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
			Idempotency:     v.GetBool("IDEMPOTENCY_ENABLED"),
			IdempotencyTTL:  v.GetDuration("IDEMPOTENCY_TTL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Ledger: LedgerConfig{
			AdjustmentMode: strings.ToLower(v.GetString("ADJUSTMENT_MODE")),
			LowStockRule:   v.GetString("LOW_STOCK_RULE"),
		},
		Worker: WorkerConfig{
			OutboxInterval:  v.GetDuration("OUTBOX_INTERVAL"),
			OutboxBatchSize: v.GetInt("OUTBOX_BATCH_SIZE"),
			CleanupInterval: v.GetDuration("CLEANUP_INTERVAL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Ledger.AdjustmentMode {
	case AdjustmentSnapshot, AdjustmentAbsolute:
	default:
		return fmt.Errorf("ADJUSTMENT_MODE must be %q or %q, got %q",
			AdjustmentSnapshot, AdjustmentAbsolute, c.Ledger.AdjustmentMode)
	}
	if c.App.Env == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "stockledger")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "30s")
	v.SetDefault("DB_MIGRATE", true)

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("IDEMPOTENCY_ENABLED", true)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")

	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_ISSUER", "stockledger")
	v.SetDefault("JWT_TTL", "12h")

	v.SetDefault("ADJUSTMENT_MODE", AdjustmentSnapshot)
	v.SetDefault("LOW_STOCK_RULE", "quantity <= reorder_level")

	v.SetDefault("OUTBOX_INTERVAL", "5s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("CLEANUP_INTERVAL", "1h")
}
