// Package config loads application configuration through Viper. Values
// come from an optional YAML file with environment variables taking
// precedence, so deployments can run file-less with env-only config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Retell    RetellConfig    `mapstructure:"retell"`
	API       APIConfig       `mapstructure:"api"`
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Email     EmailConfig     `mapstructure:"email"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"env"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Name                  string        `mapstructure:"name"`
	SSLMode               string        `mapstructure:"sslmode"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
}

// ConnectionString returns a PostgreSQL connection string.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings. Redis is optional: when Addr
// is empty the rate limiter falls back to its in-memory store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// RetellConfig holds Retell webhook settings.
type RetellConfig struct {
	// WebhookSecret signs inbound webhook bodies (HMAC-SHA256).
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// APIConfig holds settings for the authenticated CRM API surface.
type APIConfig struct {
	// BearerToken authorizes the legacy generic webhook route and the CRM API.
	BearerToken string `mapstructure:"bearer_token"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	PublicURL string `mapstructure:"public_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitConfig holds webhook rate limiting settings.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// EmailConfig holds outbound notification email settings.
type EmailConfig struct {
	// SendGridAPIKey enables the SendGrid sender; empty disables email dispatch.
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromAddress    string `mapstructure:"from_address"`
	FromName       string `mapstructure:"from_name"`
}

// defaults registers every key Viper should know about. Secrets default
// to empty strings; registering them anyway is what lets AutomaticEnv
// surface DATABASE_PASSWORD and friends through Unmarshal.
var defaults = map[string]any{
	"server.host": "0.0.0.0",
	"server.port": 8080,
	"server.env":  "development",

	"database.host":                    "localhost",
	"database.port":                    5432,
	"database.user":                    "dh_portal",
	"database.password":                "",
	"database.name":                    "dh_portal",
	"database.sslmode":                 "disable",
	"database.max_connections":         25,
	"database.max_idle_connections":    5,
	"database.connection_max_lifetime": "5m",

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,

	"retell.webhook_secret": "",
	"api.bearer_token":      "",
	"app.public_url":        "",

	"log.level":  "info",
	"log.format": "json",

	"rate_limit.requests": 50,
	"rate_limit.window":   "1m",

	"email.sendgrid_api_key": "",
	"email.from_address":     "notifications@dykstrahamel.com",
	"email.from_name":        "DH Portal",
}

// Load reads configuration and validates the required fields.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dh-portal")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; env and defaults carry the load.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every value the service cannot run without is set.
func (c *Config) Validate() error {
	required := []struct {
		value string
		name  string
	}{
		{c.Database.Password, "DATABASE_PASSWORD"},
		{c.Retell.WebhookSecret, "RETELL_WEBHOOK_SECRET"},
		{c.API.BearerToken, "API_BEARER_TOKEN"},
		{c.App.PublicURL, "APP_PUBLIC_URL"},
	}

	var missing []string
	for _, req := range required {
		if req.value == "" {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.ConfigError("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
