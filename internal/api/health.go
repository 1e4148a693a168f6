// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sentinelai/sentinel/internal/logging"
)

// Healthz is the liveness probe. It reports ok whenever the process serves
// requests; readiness of downstream systems is not checked here.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	body := map[string]interface{}{
		"status":         "ok",
		"version":        Version,
		"environment":    h.cfg.Server.Environment,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode health response")
	}
}

// Root serves a minimal service banner at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"service": "sentinel",
		"version": Version,
		"api":     "/api/v1",
	})
}

// DebugAITest probes AI backend connectivity. Hidden behind the
// debug_ai_endpoints flag; responds 404 when the flag is off so the
// endpoint's existence is not disclosed.
func (h *Handler) DebugAITest(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AI.DebugEndpoints {
		http.NotFound(w, r)
		return
	}

	if h.aiClient == nil || !h.aiClient.Configured() {
		respondError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI service unavailable", nil)
		return
	}

	text, err := h.aiClient.AnalyzeMissionContext(r.Context(),
		"Reply with 'pong' to confirm AI connectivity.",
		"You are a connectivity probe for SentinelAI.")
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI service unavailable", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"response": text,
		"model":    h.aiClient.Model(),
	})
}
