// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelai/sentinel/internal/models"
)

// newTestDB creates an in-memory database for one test.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// insertTestEvent stores an event with the given type, mission and age.
func insertTestEvent(t *testing.T, db *DB, eventType, missionID string, age time.Duration) string {
	t.Helper()

	id := uuid.New().String()
	err := db.InsertEvent(context.Background(), id, &models.Event{
		EventType: eventType,
		MissionID: missionID,
		Source:    "test",
		Timestamp: time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}
	return id
}

func TestInsertAndListEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id := uuid.New().String()
	err := db.InsertEvent(ctx, id, &models.Event{
		EventType:   "aprs",
		Description: "position report",
		MissionID:   "alpha",
		Source:      "aprs_is",
		Timestamp:   time.Now().UTC(),
		Metadata:    map[string]interface{}{"source_callsign": "N0CALL-9", "lat": 37.5},
	})
	if err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}

	events, err := db.ListEvents(ctx, EventFilter{MissionID: "alpha"})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.ID != id {
		t.Errorf("id = %q, want %q", ev.ID, id)
	}
	if ev.EventType != "aprs" || ev.Source != "aprs_is" {
		t.Errorf("unexpected event fields: %+v", ev)
	}
	if ev.Metadata["source_callsign"] != "N0CALL-9" {
		t.Errorf("metadata not round-tripped: %v", ev.Metadata)
	}
}

func TestListEventsNewestFirst(t *testing.T) {
	db := newTestDB(t)

	oldID := insertTestEvent(t, db, "aprs", "alpha", 2*time.Hour)
	newID := insertTestEvent(t, db, "aprs", "alpha", 5*time.Minute)

	events, err := db.ListEvents(context.Background(), EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != newID || events[1].ID != oldID {
		t.Errorf("events not ordered newest first: %v, %v", events[0].ID, events[1].ID)
	}
}

func TestListEventsFilters(t *testing.T) {
	db := newTestDB(t)

	insertTestEvent(t, db, "aprs", "alpha", time.Minute)
	insertTestEvent(t, db, "adsb", "alpha", time.Minute)
	insertTestEvent(t, db, "aprs", "bravo", time.Minute)
	insertTestEvent(t, db, "aprs", "alpha", 3*time.Hour)

	events, err := db.ListEvents(context.Background(), EventFilter{
		MissionID: "alpha",
		EventType: "aprs",
		Since:     time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}

func TestListEventsLimit(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 5; i++ {
		insertTestEvent(t, db, "aprs", "alpha", time.Duration(i)*time.Minute)
	}

	events, err := db.ListEvents(context.Background(), EventFilter{Limit: 3})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("got %d events, want 3", len(events))
	}
}

func TestWindowStats(t *testing.T) {
	db := newTestDB(t)

	insertTestEvent(t, db, "aprs", "alpha", 5*time.Minute)
	insertTestEvent(t, db, "aprs", "alpha", 10*time.Minute)
	insertTestEvent(t, db, "adsb", "alpha", 15*time.Minute)
	insertTestEvent(t, db, "aprs", "alpha", 2*time.Hour) // outside window

	stats, err := db.WindowStats(context.Background(), "alpha", time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("WindowStats: %v", err)
	}

	if stats.EventCount != 3 {
		t.Errorf("event count = %d, want 3", stats.EventCount)
	}
	if stats.LastEventAt == nil {
		t.Fatal("last event timestamp missing")
	}
	if stats.DominantType != "aprs" {
		t.Errorf("dominant type = %q, want aprs", stats.DominantType)
	}
}

func TestWindowStatsTieBreaksLexicographically(t *testing.T) {
	db := newTestDB(t)

	insertTestEvent(t, db, "bravo_type", "alpha", time.Minute)
	insertTestEvent(t, db, "alpha_type", "alpha", 2*time.Minute)

	stats, err := db.WindowStats(context.Background(), "alpha", time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("WindowStats: %v", err)
	}
	if stats.DominantType != "alpha_type" {
		t.Errorf("dominant type = %q, want alpha_type (lexicographic tie-break)", stats.DominantType)
	}
}

func TestWindowStatsEmpty(t *testing.T) {
	db := newTestDB(t)

	stats, err := db.WindowStats(context.Background(), "", time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("WindowStats: %v", err)
	}
	if stats.EventCount != 0 || stats.LastEventAt != nil || stats.DominantType != "" {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestSnapshotsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.InsertSnapshot(ctx, &models.AnalysisSnapshot{
		MissionID:     "alpha",
		Status:        models.StatusAttention,
		Summary:       "Elevated activity detected; monitor ongoing events.",
		EventCount:    6,
		WindowMinutes: 60,
	})
	if err != nil {
		t.Fatalf("InsertSnapshot: %v", err)
	}

	snaps, err := db.ListSnapshots(ctx, "alpha", 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snaps))
	}
	snap := snaps[0]
	if snap.ID == 0 {
		t.Error("snapshot ID not assigned")
	}
	if snap.Status != models.StatusAttention || snap.EventCount != 6 || snap.WindowMinutes != 60 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestServiceState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	value, err := db.GetState(ctx, "retention_last_cleanup")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if value != "" {
		t.Errorf("unset state = %q, want empty", value)
	}

	if err := db.SetState(ctx, "retention_last_cleanup", "2026-08-29"); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if err := db.SetState(ctx, "retention_last_cleanup", "2026-08-30"); err != nil {
		t.Fatalf("SetState overwrite: %v", err)
	}

	value, err = db.GetState(ctx, "retention_last_cleanup")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if value != "2026-08-30" {
		t.Errorf("state = %q, want 2026-08-30", value)
	}
}
