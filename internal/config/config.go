// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. An optional .env file is read first so local development does
// not need exported variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultDBPassword = "changeme"
	defaultJWTSecret  = "change-me-in-production"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string `envconfig:"APP_HOST" default:"0.0.0.0"`
	Port string `envconfig:"APP_PORT" default:"8080"`
	Env  string `envconfig:"APP_ENV" default:"development"` // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	DBPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	DBUser     string `envconfig:"POSTGRES_USER" default:"tenantcms"`
	DBPassword string `envconfig:"POSTGRES_PASSWORD" default:"changeme"`
	DBName     string `envconfig:"POSTGRES_DB" default:"tenantcms"`

	// Valkey (Redis-compatible cache). An empty host disables post caching.
	ValkeyHost     string        `envconfig:"VALKEY_HOST" default:"localhost"`
	ValkeyPort     string        `envconfig:"VALKEY_PORT" default:"6379"`
	ValkeyPassword string        `envconfig:"VALKEY_PASSWORD"`
	PostCacheTTL   time.Duration `envconfig:"POST_CACHE_TTL" default:"5m"`

	// S3-compatible object storage. An empty endpoint disables uploads.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"fsn1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"tenantcms-media"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL"`

	// Bearer token settings
	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"tenantcms"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Posts assigned to this category are skipped by "next post" navigation.
	NavExcludedCategory string `envconfig:"NAV_EXCLUDED_CATEGORY" default:"News"`

	// Background purge of soft-deleted categories and tags.
	PurgeSchedule  string        `envconfig:"PURGE_SCHEDULE" default:"@daily"`
	PurgeRetention time.Duration `envconfig:"PURGE_RETENTION" default:"720h"`

	// OpenTelemetry collector endpoint (host:port). Empty disables tracing.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from the environment (and .env when present),
// applying defaults for development. Returns an error if critical values
// are left at their defaults in production mode.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, errors.New("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether internal error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CacheEnabled reports whether a Valkey host is configured.
func (c *Config) CacheEnabled() bool {
	return c.ValkeyHost != ""
}

// StorageEnabled reports whether S3 uploads are configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != ""
}
