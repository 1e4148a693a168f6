// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
	"github.com/sentinelai/sentinel/internal/validation"
	wshub "github.com/sentinelai/sentinel/internal/websocket"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// CreateEvent accepts an incoming event, persists it and fans it out to
// websocket subscribers.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := decodeBody(r, &event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON", err)
		return
	}

	if verr := validation.ValidateStruct(&event); verr != nil {
		respondValidationError(w, verr)
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	id := uuid.NewString()
	if err := h.db.InsertEvent(r.Context(), id, &event); err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to store event", err)
		return
	}

	metrics.EventsIngested.WithLabelValues(event.EventType).Inc()

	// Opportunistic daily retention sweep; at most one pass per day.
	if h.sweeper != nil {
		h.sweeper.MaybeSweep(r.Context())
	}

	if h.hub != nil {
		h.hub.BroadcastEvent(&models.StoredEvent{
			ID:          id,
			EventType:   event.EventType,
			Description: event.Description,
			MissionID:   event.MissionID,
			Source:      event.Source,
			Timestamp:   event.Timestamp,
			Metadata:    event.Metadata,
		})
	}

	respondSuccess(w, http.StatusCreated, models.EventCreateResponse{
		ID:     id,
		Status: "received",
	})
}

// ListEvents returns recent events, newest first, optionally filtered by
// mission and type.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", defaultEventLimit), 1, maxEventLimit)

	events, err := h.db.ListEvents(r.Context(), database.EventFilter{
		MissionID: r.URL.Query().Get("mission_id"),
		EventType: r.URL.Query().Get("event_type"),
		Limit:     limit,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to list events", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// ServeEventSocket upgrades the connection and registers it with the hub
// for live event delivery.
func (h *Handler) ServeEventSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "ws_unavailable", "Live event feed is not running", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := wshub.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
