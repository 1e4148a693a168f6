// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
)

// InsertEvent persists an event under the given server-assigned ID.
func (db *DB) InsertEvent(ctx context.Context, id string, event *models.Event) error {
	start := time.Now()

	var metadataJSON sql.NullString
	if event.Metadata != nil {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode event metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(raw), Valid: true}
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (id, event_type, description, mission_id, source, timestamp, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		event.EventType,
		nullable(event.Description),
		nullable(event.MissionID),
		nullable(event.Source),
		ts.UTC(),
		metadataJSON,
	)
	metrics.RecordDBQuery("insert", "events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// EventFilter scopes event queries.
type EventFilter struct {
	// MissionID limits results to one mission when non-empty.
	MissionID string

	// EventType limits results to a single event type when non-empty.
	EventType string

	// Since and Until bound the event timestamp. Zero values are unbounded.
	Since time.Time
	Until time.Time

	// Limit caps the number of returned rows. Zero means no cap.
	Limit int
}

// ListEvents returns events matching the filter, newest first.
func (db *DB) ListEvents(ctx context.Context, filter EventFilter) ([]models.StoredEvent, error) {
	start := time.Now()

	query := `SELECT id, event_type, description, mission_id, source, timestamp, metadata
		FROM events WHERE 1=1`
	args := []interface{}{}

	if filter.MissionID != "" {
		query += " AND mission_id = ?"
		args = append(args, filter.MissionID)
	}
	if filter.EventType != "" {
		query += " AND event_type = ?"
		args = append(args, filter.EventType)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until.UTC())
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer closeQuietly(rows)

	var events []models.StoredEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// WindowStats summarizes events inside an analysis window.
type WindowStats struct {
	EventCount   int
	LastEventAt  *time.Time
	DominantType string
}

// WindowStats computes the event count, most recent event time and dominant
// event type inside the window. Count ties on the dominant type are broken
// lexicographically.
func (db *DB) WindowStats(ctx context.Context, missionID string, since time.Time) (WindowStats, error) {
	start := time.Now()
	var stats WindowStats

	countQuery := `SELECT COUNT(*), MAX(timestamp) FROM events WHERE timestamp >= ?`
	args := []interface{}{since.UTC()}
	if missionID != "" {
		countQuery += " AND mission_id = ?"
		args = append(args, missionID)
	}

	var lastEvent sql.NullTime
	err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&stats.EventCount, &lastEvent)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return stats, fmt.Errorf("failed to compute window stats: %w", err)
	}
	if lastEvent.Valid {
		t := lastEvent.Time.UTC()
		stats.LastEventAt = &t
	}

	if stats.EventCount == 0 {
		return stats, nil
	}

	typeQuery := `SELECT event_type FROM events WHERE timestamp >= ?`
	typeArgs := []interface{}{since.UTC()}
	if missionID != "" {
		typeQuery += " AND mission_id = ?"
		typeArgs = append(typeArgs, missionID)
	}
	typeQuery += ` GROUP BY event_type ORDER BY COUNT(*) DESC, event_type ASC LIMIT 1`

	err = db.conn.QueryRowContext(ctx, typeQuery, typeArgs...).Scan(&stats.DominantType)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("failed to compute dominant event type: %w", err)
	}

	return stats, nil
}

// scanEvent reads one event row.
func scanEvent(rows *sql.Rows) (models.StoredEvent, error) {
	var (
		ev           models.StoredEvent
		description  sql.NullString
		missionID    sql.NullString
		source       sql.NullString
		metadataJSON sql.NullString
	)

	if err := rows.Scan(&ev.ID, &ev.EventType, &description, &missionID, &source, &ev.Timestamp, &metadataJSON); err != nil {
		return ev, fmt.Errorf("failed to scan event row: %w", err)
	}

	ev.Description = description.String
	ev.MissionID = missionID.String
	ev.Source = source.String
	ev.Timestamp = ev.Timestamp.UTC()

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &ev.Metadata); err != nil {
			// Stored metadata should always be valid JSON; tolerate
			// corruption rather than failing the whole listing.
			logging.Warn().Str("event_id", ev.ID).Err(err).Msg("Failed to decode stored event metadata")
		}
	}

	return ev, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
