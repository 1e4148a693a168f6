// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package ingest fetches mission context from upstream providers: weather
// from Open-Meteo and nearby air traffic from OpenSky.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/sentinelai/sentinel/internal/config"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
)

// ErrServiceUnavailable is returned when an upstream provider cannot serve
// the request: timeouts, transport failures and non-2xx responses all wrap
// this error.
var ErrServiceUnavailable = errors.New("upstream service unavailable")

// WeatherIngestor fetches mission-relevant weather from an Open-Meteo
// compatible forecast endpoint.
type WeatherIngestor struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewWeatherIngestor builds a weather ingestor. A nil client gets a default
// with the configured timeout.
func NewWeatherIngestor(cfg config.WeatherConfig, httpClient *http.Client) *WeatherIngestor {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &WeatherIngestor{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// openMeteoResponse mirrors the subset of the Open-Meteo forecast payload
// consumed here.
type openMeteoResponse struct {
	CurrentWeather struct {
		Time          string   `json:"time"`
		Temperature   *float64 `json:"temperature"`
		WindSpeed     *float64 `json:"windspeed"`
		WindDirection *float64 `json:"winddirection"`
		WeatherCode   *int     `json:"weathercode"`
	} `json:"current_weather"`
	Hourly struct {
		Time                     []string   `json:"time"`
		Visibility               []*float64 `json:"visibility"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		Precipitation            []*float64 `json:"precipitation"`
		CloudCover               []*float64 `json:"cloudcover"`
	} `json:"hourly"`
}

// GetWeather fetches a weather snapshot for the location. The optional time
// window constrains the forecast date range.
func (w *WeatherIngestor) GetWeather(ctx context.Context, lat, lon float64, window *models.TimeWindow) (*models.WeatherSnapshot, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("latitude", formatFloat(lat))
	params.Set("longitude", formatFloat(lon))
	params.Set("current_weather", "true")
	params.Set("hourly", "visibility,precipitation_probability,precipitation,cloudcover")
	params.Set("timezone", "UTC")
	if window != nil && window.Start != nil {
		params.Set("start_date", window.Start.UTC().Format(time.DateOnly))
	}
	if window != nil && window.End != nil {
		params.Set("end_date", window.End.UTC().Format(time.DateOnly))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	metrics.RecordIngestorRequest("weather", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Weather request failed")
		return nil, fmt.Errorf("%w: weather request failed: %v", ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logging.Ctx(ctx).Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Weather service returned error")
		return nil, fmt.Errorf("%w: weather service returned HTTP %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode weather response: %v", ErrServiceUnavailable, err)
	}

	return w.buildSnapshot(lat, lon, &payload), nil
}

func (w *WeatherIngestor) buildSnapshot(lat, lon float64, payload *openMeteoResponse) *models.WeatherSnapshot {
	current := payload.CurrentWeather
	times := payload.Hourly.Time

	snapshot := &models.WeatherSnapshot{
		Latitude:             lat,
		Longitude:            lon,
		AsOf:                 parseOpenMeteoTime(current.Time),
		TemperatureC:         current.Temperature,
		WindSpeedMPS:         current.WindSpeed,
		WindDirectionDeg:     current.WindDirection,
		PrecipProbabilityPct: findHourlyValue(times, current.Time, payload.Hourly.PrecipitationProbability),
		PrecipitationMM:      findHourlyValue(times, current.Time, payload.Hourly.Precipitation),
		CloudCoverPct:        findHourlyValue(times, current.Time, payload.Hourly.CloudCover),
	}

	if visibilityM := findHourlyValue(times, current.Time, payload.Hourly.Visibility); visibilityM != nil {
		km := *visibilityM / 1000
		snapshot.VisibilityKM = &km
	}
	if current.WeatherCode != nil {
		snapshot.Condition = strconv.Itoa(*current.WeatherCode)
	}
	return snapshot
}

// findHourlyValue picks the hourly sample matching the current-weather
// timestamp exactly, falling back to the first sample.
func findHourlyValue(times []string, target string, values []*float64) *float64 {
	if len(times) == 0 || len(values) == 0 {
		return nil
	}
	if target != "" {
		for i, ts := range times {
			if ts == target && i < len(values) {
				return values[i]
			}
		}
	}
	return values[0]
}

// parseOpenMeteoTime parses the provider's local-ISO timestamps
// ("2026-08-29T12:00"), tolerating full RFC 3339 as well.
func parseOpenMeteoTime(ts string) time.Time {
	if ts == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339} {
		if parsed, err := time.Parse(layout, ts); err == nil {
			return parsed.UTC()
		}
	}
	return time.Now().UTC()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
