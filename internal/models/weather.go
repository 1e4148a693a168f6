// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package models

import (
	"time"
)

// TimeWindow bounds weather observations or event queries. Either side may
// be nil for an open-ended window.
type TimeWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// WeatherSnapshot holds mission-relevant weather details for a location and
// time. Pointer fields are nil when the provider did not report the value.
type WeatherSnapshot struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	AsOf      time.Time `json:"as_of"`

	TemperatureC     *float64 `json:"temperature_c,omitempty"`
	WindSpeedMPS     *float64 `json:"wind_speed_mps,omitempty"`
	WindDirectionDeg *float64 `json:"wind_direction_deg,omitempty"`

	PrecipProbabilityPct *float64 `json:"precipitation_probability_pct,omitempty"`
	PrecipitationMM      *float64 `json:"precipitation_mm,omitempty"`
	VisibilityKM         *float64 `json:"visibility_km,omitempty"`
	CloudCoverPct        *float64 `json:"cloud_cover_pct,omitempty"`

	// Condition is a short textual summary (e.g. "clear", "overcast").
	Condition string `json:"condition,omitempty"`
}
