// Copyright 2026 The SereneBook Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds access token verification configuration
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Leeway    time.Duration
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	Argon2Memory      uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8
	Argon2SaltLength  uint32
	Argon2KeyLength   uint32
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "serenebook"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "serenebook"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    parseInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: parseDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", "serenebook"),
			Leeway:    parseDuration("AUTH_JWT_LEEWAY", "30s"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "serenebook"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		Security: SecurityConfig{
			Argon2Memory:      uint32(parseInt("ARGON2_MEMORY", 65536)),
			Argon2Iterations:  uint32(parseInt("ARGON2_ITERATIONS", 3)),
			Argon2Parallelism: uint8(parseInt("ARGON2_PARALLELISM", 4)),
			Argon2SaltLength:  uint32(parseInt("ARGON2_SALT_LENGTH", 16)),
			Argon2KeyLength:   uint32(parseInt("ARGON2_KEY_LENGTH", 32)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: float64(parseInt("RATELIMIT_RPS", 10)),
			Burst:             parseInt("RATELIMIT_BURST", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		// Fallback to default
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
