// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sentinel/config.yaml",
	"/etc/sentinel/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. These are applied
// first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Timeout:     30 * time.Second,
			Environment: "local",
			BaseURL:     "http://localhost:8000",
		},
		Database: DatabaseConfig{
			Path:      "/data/sentinel.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		AI: AIConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
			APIKey:  "",
			Timeout: 30 * time.Second,
		},
		Weather: WeatherConfig{
			Enabled:  false,
			Provider: "open-meteo",
			BaseURL:  "https://api.open-meteo.com/v1/forecast",
			Timeout:  10 * time.Second,
		},
		ADSB: ADSBConfig{
			Enabled:         false,
			BaseURL:         "https://opensky-network.org/api/states/all",
			Timeout:         10 * time.Second,
			DefaultRadiusNM: 25.0,
		},
		APRS: APRSConfig{
			Enabled: false,
			Host:    "noam.aprs2.net",
			Port:    14580,
		},
		Security: SecurityConfig{
			RequireAPIKey:   false,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Retention: RetentionConfig{
			Days: 7,
		},
	}
}

// Load loads configuration using koanf with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// SENTINEL_ENV=production must flip the api key requirement before the
	// env layer is merged, so an explicit REQUIRE_API_KEY still wins.
	if isProductionEnv() {
		if err := k.Set("security.require_api_key", true); err != nil {
			return nil, fmt.Errorf("failed to set production defaults: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func isProductionEnv() bool {
	env := strings.ToLower(os.Getenv("SENTINEL_ENV"))
	return env == "prod" || env == "production"
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied via env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - SENTINEL_ENV -> server.environment
//   - APRS_HOST -> aprs.host
//   - ENABLE_WEATHER_INGESTOR -> weather.enabled
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"sentinel_env":   "server.environment",
		"http_host":      "server.host",
		"http_port":      "server.port",
		"http_timeout":   "server.timeout",
		"api_base_url":   "server.base_url",
		"sentinel_debug": "ai.debug_endpoints",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Logging
		"sentinel_log_level": "logging.level",
		"log_level":          "logging.level",
		"log_format":         "logging.format",
		"log_caller":         "logging.caller",

		// AI backend
		"openai_model":       "ai.model",
		"openai_base_url":    "ai.base_url",
		"openai_api_key":     "ai.api_key",
		"openai_timeout":     "ai.timeout",
		"debug_ai_endpoints": "ai.debug_endpoints",

		// Weather ingestion
		"enable_weather_ingestor": "weather.enabled",
		"weather_provider":        "weather.provider",
		"weather_base_url":        "weather.base_url",
		"weather_timeout":         "weather.timeout",

		// ADS-B ingestion
		"enable_adsb_ingestor":   "adsb.enabled",
		"adsb_base_url":          "adsb.base_url",
		"adsb_timeout":           "adsb.timeout",
		"adsb_default_radius_nm": "adsb.default_radius_nm",

		// APRS ingestion
		"aprs_enabled":           "aprs.enabled",
		"aprs_host":              "aprs.host",
		"aprs_port":              "aprs.port",
		"aprs_callsign":          "aprs.callsign",
		"aprs_passcode":          "aprs.passcode",
		"aprs_filter":            "aprs.filter",
		"aprs_filter_center_lat": "aprs.filter_center_lat",
		"aprs_filter_center_lon": "aprs.filter_center_lon",
		"aprs_filter_radius_km":  "aprs.filter_radius_km",

		// Security
		"require_api_key":   "security.require_api_key",
		"api_key_pepper":    "security.api_key_pepper",
		"rate_limit_reqs":   "security.rate_limit_reqs",
		"rate_limit_window": "security.rate_limit_window",
		"cors_origins":      "security.cors_origins",

		// Retention
		"sentinel_retention_days": "retention.days",
		"retention_days":          "retention.days",
	}

	if path, ok := envMappings[key]; ok {
		return path
	}

	// Unmapped env vars are ignored rather than guessed into paths.
	return ""
}
