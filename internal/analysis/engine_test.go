// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sentinelai/sentinel/internal/database"
	"github.com/sentinelai/sentinel/internal/models"
)

type fakeEventStore struct {
	stats       database.WindowStats
	statsErr    error
	snapshotErr error

	statsCalls []time.Time
	snapshots  []models.AnalysisSnapshot
}

func (s *fakeEventStore) WindowStats(_ context.Context, _ string, since time.Time) (database.WindowStats, error) {
	s.statsCalls = append(s.statsCalls, since)
	return s.stats, s.statsErr
}

func (s *fakeEventStore) InsertSnapshot(_ context.Context, snapshot *models.AnalysisSnapshot) error {
	s.snapshots = append(s.snapshots, *snapshot)
	return s.snapshotErr
}

func TestRuleBasedEngineThresholds(t *testing.T) {
	tests := []struct {
		count      int
		wantStatus string
		wantPhrase string
	}{
		{0, models.StatusStable, "Low activity"},
		{4, models.StatusStable, "Low activity"},
		{5, models.StatusAttention, "Elevated activity"},
		{9, models.StatusAttention, "Elevated activity"},
		{10, models.StatusCritical, "High volume"},
		{42, models.StatusCritical, "High volume"},
	}

	for _, tt := range tests {
		store := &fakeEventStore{stats: database.WindowStats{EventCount: tt.count}}
		engine := NewRuleBasedEngine(store)

		result, err := engine.Analyze(context.Background(), Filter{WindowMinutes: 60})
		if err != nil {
			t.Fatalf("count %d: Analyze() error = %v", tt.count, err)
		}
		if result.Status != tt.wantStatus {
			t.Errorf("count %d: status = %q, want %q", tt.count, result.Status, tt.wantStatus)
		}
		if !strings.Contains(result.Summary, tt.wantPhrase) {
			t.Errorf("count %d: summary = %q, want phrase %q", tt.count, result.Summary, tt.wantPhrase)
		}
	}
}

func TestRuleBasedEngineDominantTypeInSummary(t *testing.T) {
	store := &fakeEventStore{stats: database.WindowStats{EventCount: 2, DominantType: "sensor"}}
	engine := NewRuleBasedEngine(store)

	result, err := engine.Analyze(context.Background(), Filter{WindowMinutes: 60})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if want := "Low activity; mission appears stable. Most frequent event type: sensor."; result.Summary != want {
		t.Errorf("summary = %q, want %q", result.Summary, want)
	}
}

func TestRuleBasedEngineWindowCutoff(t *testing.T) {
	store := &fakeEventStore{}
	engine := NewRuleBasedEngine(store)
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	if _, err := engine.Analyze(context.Background(), Filter{WindowMinutes: 90}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := fixed.Add(-90 * time.Minute)
	if len(store.statsCalls) != 1 || !store.statsCalls[0].Equal(want) {
		t.Errorf("window cutoff = %v, want %v", store.statsCalls, want)
	}
}

func TestRuleBasedEngineWritesSnapshot(t *testing.T) {
	store := &fakeEventStore{stats: database.WindowStats{EventCount: 7}}
	engine := NewRuleBasedEngine(store)

	result, err := engine.Analyze(context.Background(), Filter{MissionID: "m1", WindowMinutes: 30})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(store.snapshots) != 1 {
		t.Fatalf("wrote %d snapshots, want 1", len(store.snapshots))
	}
	snap := store.snapshots[0]
	if snap.MissionID != "m1" || snap.Status != result.Status || snap.EventCount != 7 || snap.WindowMinutes != 30 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRuleBasedEngineSnapshotFailureIsNotFatal(t *testing.T) {
	store := &fakeEventStore{snapshotErr: errors.New("disk full")}
	engine := NewRuleBasedEngine(store)

	if _, err := engine.Analyze(context.Background(), Filter{WindowMinutes: 60}); err != nil {
		t.Errorf("Analyze() error = %v, want nil despite snapshot failure", err)
	}
}

func TestRuleBasedEngineStoreError(t *testing.T) {
	store := &fakeEventStore{statsErr: errors.New("db down")}
	engine := NewRuleBasedEngine(store)

	if _, err := engine.Analyze(context.Background(), Filter{WindowMinutes: 60}); err == nil {
		t.Error("Analyze() error = nil, want store error")
	}
}
