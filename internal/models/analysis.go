// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package models

import (
	"time"
)

// Mission status tiers produced by the rule-based engine.
const (
	StatusStable    = "stable"
	StatusAttention = "attention"
	StatusCritical  = "critical"
)

// AnalysisStatusResponse describes mission status derived from recent events.
type AnalysisStatusResponse struct {
	MissionID     string     `json:"mission_id,omitempty"`
	WindowMinutes int        `json:"window_minutes"`
	EventCount    int        `json:"event_count"`
	Status        string     `json:"status"`
	LastEventAt   *time.Time `json:"last_event_at,omitempty"`
	Summary       string     `json:"summary"`
}

// MissionSignal describes a notable mission event or observation supplied by
// the caller for AI-assisted analysis.
type MissionSignal struct {
	Type        string                 `json:"type" validate:"required"`
	Description string                 `json:"description,omitempty"`
	Timestamp   *time.Time             `json:"timestamp,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// MissionLocation holds mission coordinates for contextual data lookups.
type MissionLocation struct {
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Description string  `json:"description,omitempty"`
}

// MissionAnalysisRequest is the payload for AI-assisted mission analysis.
// Intent is optional; when empty, the backend selects one automatically.
type MissionAnalysisRequest struct {
	MissionID       string                 `json:"mission_id,omitempty"`
	MissionMetadata map[string]interface{} `json:"mission_metadata,omitempty"`
	Signals         []MissionSignal        `json:"signals,omitempty" validate:"dive"`
	Notes           string                 `json:"notes,omitempty"`
	Location        *MissionLocation       `json:"location,omitempty"`
	TimeWindow      *TimeWindow            `json:"time_window,omitempty"`
	Intent          MissionIntent          `json:"intent,omitempty" validate:"omitempty,mission_intent"`
}

// MissionAnalysisResponse is the structured result of AI-backed mission
// analysis.
type MissionAnalysisResponse struct {
	Intent          MissionIntent `json:"intent"`
	Summary         string        `json:"summary"`
	Risks           []string      `json:"risks"`
	Recommendations []string      `json:"recommendations"`
}

// AnalysisSnapshot is a persisted audit record of a status analysis.
type AnalysisSnapshot struct {
	ID            int64     `json:"id"`
	MissionID     string    `json:"mission_id,omitempty"`
	Status        string    `json:"status"`
	Summary       string    `json:"summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	EventCount    int       `json:"event_count"`
	WindowMinutes int       `json:"window_minutes"`
}
