// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package models

import (
	"time"
)

// AircraftTrack is a normalized aircraft track from an ADS-B source.
// Position is required; the remaining telemetry is best-effort.
type AircraftTrack struct {
	Callsign string  `json:"callsign,omitempty"`
	ICAO     string  `json:"icao,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`

	// Altitude in feet.
	Altitude *float64 `json:"altitude,omitempty"`

	// GroundSpeed in knots.
	GroundSpeed *float64 `json:"ground_speed,omitempty"`

	// Heading in degrees.
	Heading *float64 `json:"heading,omitempty"`

	// VerticalRate in feet per minute.
	VerticalRate *float64 `json:"vertical_rate,omitempty"`

	LastSeen *time.Time `json:"last_seen,omitempty"`
}
