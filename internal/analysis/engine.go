// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

// Package analysis computes mission status from stored events and
// orchestrates AI-backed mission analysis: context enrichment, intent
// routing and graceful degradation when upstream services fail.
package analysis

import (
	"context"
	"time"

	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/models"
)

// Status thresholds for the rule-based engine.
const (
	DefaultAttentionThreshold = 5
	DefaultCriticalThreshold  = 10
)

// Filter scopes a status analysis run.
type Filter struct {
	// MissionID limits the analysis to one mission when non-empty.
	MissionID string

	// WindowMinutes is the lookback window.
	WindowMinutes int
}

// Result is the structured outcome of an analysis run.
type Result struct {
	MissionID         string
	WindowMinutes     int
	EventCount        int
	Status            string
	Summary           string
	LastEventAt       *time.Time
	DominantEventType string
}

// EventStore is the persistence surface the engine needs.
type EventStore interface {
	WindowStats(ctx context.Context, missionID string, since time.Time) (database.WindowStats, error)
	InsertSnapshot(ctx context.Context, snapshot *models.AnalysisSnapshot) error
}

// Engine produces a mission status from recent events. Implementations other
// than the rule-based engine can plug in without changing the API layer.
type Engine interface {
	Analyze(ctx context.Context, filter Filter) (Result, error)
}

// RuleBasedEngine classifies mission status from event counts using fixed
// thresholds.
type RuleBasedEngine struct {
	store              EventStore
	attentionThreshold int
	criticalThreshold  int

	now func() time.Time
}

// NewRuleBasedEngine builds an engine with the default thresholds.
func NewRuleBasedEngine(store EventStore) *RuleBasedEngine {
	return &RuleBasedEngine{
		store:              store,
		attentionThreshold: DefaultAttentionThreshold,
		criticalThreshold:  DefaultCriticalThreshold,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Analyze counts events inside the window, scores the status tier and
// appends an audit snapshot. The snapshot write is best effort and never
// fails the analysis.
func (e *RuleBasedEngine) Analyze(ctx context.Context, filter Filter) (Result, error) {
	now := e.now()
	cutoff := now.Add(-time.Duration(filter.WindowMinutes) * time.Minute)

	stats, err := e.store.WindowStats(ctx, filter.MissionID, cutoff)
	if err != nil {
		return Result{}, err
	}

	status, summary := e.score(stats.EventCount, stats.DominantType)
	result := Result{
		MissionID:         filter.MissionID,
		WindowMinutes:     filter.WindowMinutes,
		EventCount:        stats.EventCount,
		Status:            status,
		Summary:           summary,
		LastEventAt:       stats.LastEventAt,
		DominantEventType: stats.DominantType,
	}

	snapshot := &models.AnalysisSnapshot{
		MissionID:     result.MissionID,
		Status:        result.Status,
		Summary:       result.Summary,
		CreatedAt:     now,
		EventCount:    result.EventCount,
		WindowMinutes: result.WindowMinutes,
	}
	if err := e.store.InsertSnapshot(ctx, snapshot); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to persist analysis snapshot")
	}

	logging.Ctx(ctx).Debug().
		Str("mission_id", result.MissionID).
		Str("status", result.Status).
		Int("event_count", result.EventCount).
		Msg("Analysis result computed")
	return result, nil
}

func (e *RuleBasedEngine) score(eventCount int, dominantType string) (string, string) {
	var status, summary string
	switch {
	case eventCount >= e.criticalThreshold:
		status = models.StatusCritical
		summary = "High volume of events; immediate attention required."
	case eventCount >= e.attentionThreshold:
		status = models.StatusAttention
		summary = "Elevated activity detected; monitor ongoing events."
	default:
		status = models.StatusStable
		summary = "Low activity; mission appears stable."
	}

	if dominantType != "" {
		summary += " Most frequent event type: " + dominantType + "."
	}
	return status, summary
}
