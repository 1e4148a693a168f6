// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package config defines the application configuration and its loader.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. Environment variables win.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	AI        AIConfig        `koanf:"ai"`
	Weather   WeatherConfig   `koanf:"weather"`
	ADSB      ADSBConfig      `koanf:"adsb"`
	APRS      APRSConfig      `koanf:"aprs"`
	Security  SecurityConfig  `koanf:"security"`
	Retention RetentionConfig `koanf:"retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`

	// BaseURL is the externally reachable URL of this server. The APRS
	// ingestor posts parsed packets back through the public events API.
	BaseURL string `koanf:"base_url"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AIConfig holds LLM backend settings.
type AIConfig struct {
	Model   string        `koanf:"model"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// DebugEndpoints enables the /debug/ai-test route.
	DebugEndpoints bool `koanf:"debug_endpoints"`
}

// WeatherConfig holds weather ingestion settings.
type WeatherConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Provider string        `koanf:"provider"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
}

// ADSBConfig holds air-traffic ingestion settings.
type ADSBConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	DefaultRadiusNM float64       `koanf:"default_radius_nm"`
}

// APRSConfig holds APRS-IS ingestion settings.
type APRSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Callsign string `koanf:"callsign"`
	Passcode string `koanf:"passcode"`

	// APIKey authenticates the ingestor's posts to the events API when
	// require_api_key is on.
	APIKey string `koanf:"api_key"`

	// Filter is a raw APRS-IS server-side filter expression. When empty
	// and a center+radius is configured, a radius filter is derived.
	Filter          string  `koanf:"filter"`
	FilterCenterLat float64 `koanf:"filter_center_lat"`
	FilterCenterLon float64 `koanf:"filter_center_lon"`
	FilterRadiusKM  float64 `koanf:"filter_radius_km"`
}

// SecurityConfig holds authentication and API hardening settings.
type SecurityConfig struct {
	// RequireAPIKey gates the protected API surface. Defaults to true in
	// production environments.
	RequireAPIKey bool `koanf:"require_api_key"`

	// APIKeyPepper is the HMAC pepper for API key hashing. Never logged.
	APIKeyPepper string `koanf:"api_key_pepper"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// RetentionConfig holds event retention settings.
type RetentionConfig struct {
	// Days is the number of days of events to keep. Values below 1 are
	// clamped to 1 by the sweeper.
	Days int `koanf:"days"`
}

// IsProduction reports whether the server runs in a production environment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "prod" || env == "production"
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.APRS.Enabled {
		if c.APRS.Host == "" {
			return fmt.Errorf("aprs.host required when aprs.enabled")
		}
		if c.APRS.Port < 1 || c.APRS.Port > 65535 {
			return fmt.Errorf("aprs.port must be 1-65535, got %d", c.APRS.Port)
		}
		if c.APRS.Callsign == "" {
			return fmt.Errorf("aprs.callsign required when aprs.enabled")
		}
	}
	if c.Weather.Enabled && c.Weather.BaseURL == "" {
		return fmt.Errorf("weather.base_url required when weather.enabled")
	}
	if c.ADSB.Enabled && c.ADSB.BaseURL == "" {
		return fmt.Errorf("adsb.base_url required when adsb.enabled")
	}
	if c.Security.RequireAPIKey && c.Security.APIKeyPepper == "" && c.IsProduction() {
		return fmt.Errorf("security.api_key_pepper required when api keys are enforced in production")
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days must not be negative, got %d", c.Retention.Days)
	}
	return nil
}
