// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package config defines the runtime configuration for the Galaktika
// server. Configuration is layered: built-in defaults, then an optional
// YAML file, then environment variables with the GALAKTIKA_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Metadata MetadataConfig `koanf:"metadata"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Auth     AuthConfig     `koanf:"auth"`
	Selector SelectorConfig `koanf:"selector"`
	Gate     GateConfig     `koanf:"gate"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the Badger store settings.
type DatabaseConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// MetadataConfig holds the external book-metadata client settings.
type MetadataConfig struct {
	Enabled             bool          `koanf:"enabled"`
	BaseURL             string        `koanf:"base_url"`
	Timeout             time.Duration `koanf:"timeout"`
	RequestsPerSecond   float64       `koanf:"requests_per_second"`
	Burst               int           `koanf:"burst"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
	OpenTimeout         time.Duration `koanf:"open_timeout"`
}

// PipelineConfig holds the in-process event pipeline settings.
type PipelineConfig struct {
	MaxRetries      int           `koanf:"max_retries"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	CloseTimeout    time.Duration `koanf:"close_timeout"`
	BufferSize      int64         `koanf:"buffer_size"`
}

// AuthConfig holds bearer-token authentication settings. When Enabled
// is false, tokens are parsed for their subject claim but signatures
// are not verified. That mode exists for local development only.
type AuthConfig struct {
	Enabled   bool   `koanf:"enabled"`
	JWTSecret string `koanf:"jwt_secret"`
}

// SelectorConfig holds the bridge candidate selector settings.
type SelectorConfig struct {
	Seed int64 `koanf:"seed"`
}

// GateConfig holds the galaxy-collapse confirmation gate settings.
type GateConfig struct {
	Countdown int           `koanf:"countdown"`
	Interval  time.Duration `koanf:"interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("server.rate_limit_reqs must be positive, got %d", c.Server.RateLimitReqs)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}
	if c.Metadata.Enabled && c.Metadata.BaseURL == "" {
		return fmt.Errorf("metadata.base_url is required when metadata.enabled is set")
	}
	if c.Metadata.Enabled && !strings.HasPrefix(c.Metadata.BaseURL, "http://") && !strings.HasPrefix(c.Metadata.BaseURL, "https://") {
		return fmt.Errorf("metadata.base_url must start with http:// or https://, got %q", c.Metadata.BaseURL)
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline.max_retries must not be negative, got %d", c.Pipeline.MaxRetries)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth.enabled is set")
	}
	if c.Gate.Countdown < 1 {
		return fmt.Errorf("gate.countdown must be positive, got %d", c.Gate.Countdown)
	}
	if c.Gate.Interval <= 0 {
		return fmt.Errorf("gate.interval must be positive, got %s", c.Gate.Interval)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, fatal, disabled, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
