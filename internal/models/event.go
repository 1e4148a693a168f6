// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package models

import (
	"time"
)

// Event is an incoming event from a field client (TAK plugin, ingestor, or
// other source).
type Event struct {
	// EventType is the category of the event. Required.
	EventType string `json:"event_type" validate:"required"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// MissionID scopes the event to a mission or operation.
	MissionID string `json:"mission_id,omitempty"`

	// Source identifies the system or device that produced the event.
	Source string `json:"source,omitempty"`

	// Timestamp is when the event occurred (UTC). Defaults to the server
	// receive time when absent.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Metadata holds additional structured data for the event.
	Metadata map[string]interface{} `json:"event_metadata,omitempty"`
}

// StoredEvent is a persisted event with its server-assigned identity.
type StoredEvent struct {
	ID          string                 `json:"id"`
	EventType   string                 `json:"event_type"`
	Description string                 `json:"description,omitempty"`
	MissionID   string                 `json:"mission_id,omitempty"`
	Source      string                 `json:"source,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"event_metadata,omitempty"`
}

// EventCreateResponse is returned after accepting an event.
type EventCreateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
