// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sentinelai/sentinel/internal/analysis"
	"github.com/sentinelai/sentinel/internal/models"
	"github.com/sentinelai/sentinel/internal/validation"
)

const (
	defaultWindowMinutes = 60
	minWindowMinutes     = 1
	maxWindowMinutes     = 1440

	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 200
)

// AnalysisStatus derives a rule-based mission status from recent events.
// An absent window_minutes defaults to 60; an explicit value outside
// [1,1440] is rejected.
func (h *Handler) AnalysisStatus(w http.ResponseWriter, r *http.Request) {
	window := defaultWindowMinutes
	if raw := r.URL.Query().Get("window_minutes"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < minWindowMinutes || v > maxWindowMinutes {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("window_minutes must be an integer between %d and %d", minWindowMinutes, maxWindowMinutes), nil)
			return
		}
		window = v
	}

	result, err := h.engine.Analyze(r.Context(), analysis.Filter{
		MissionID:     r.URL.Query().Get("mission_id"),
		WindowMinutes: window,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "analysis_error", "Failed to analyze mission status", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.AnalysisStatusResponse{
		MissionID:     result.MissionID,
		WindowMinutes: result.WindowMinutes,
		EventCount:    result.EventCount,
		Status:        result.Status,
		LastEventAt:   result.LastEventAt,
		Summary:       result.Summary,
	})
}

// ListSnapshots returns persisted status analyses, newest first.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", defaultSnapshotLimit), 1, maxSnapshotLimit)

	snapshots, err := h.db.ListSnapshots(r.Context(), r.URL.Query().Get("mission_id"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to list snapshots", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// AnalyzeMission runs AI-assisted mission analysis with explicit or
// automatic intent selection.
func (h *Handler) AnalyzeMission(w http.ResponseWriter, r *http.Request) {
	var req models.MissionAnalysisRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON", err)
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	resp, err := h.advisor.AnalyzeMission(r.Context(), &req)
	if err != nil {
		if errors.Is(err, analysis.ErrUnsupportedIntent) {
			respondError(w, http.StatusBadRequest, "unsupported_intent", err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "analysis_error", "Mission analysis failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, resp)
}
