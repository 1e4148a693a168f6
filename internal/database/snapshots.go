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

	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
)

// InsertSnapshot persists an audit record of a status analysis.
func (db *DB) InsertSnapshot(ctx context.Context, snapshot *models.AnalysisSnapshot) error {
	start := time.Now()

	createdAt := snapshot.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO analysis_snapshots (mission_id, status, summary, created_at, event_count, window_minutes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullable(snapshot.MissionID),
		snapshot.Status,
		nullable(snapshot.Summary),
		createdAt.UTC(),
		snapshot.EventCount,
		snapshot.WindowMinutes,
	)
	metrics.RecordDBQuery("insert", "analysis_snapshots", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert analysis snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns recent analysis snapshots, newest first. An empty
// missionID returns snapshots across all missions.
func (db *DB) ListSnapshots(ctx context.Context, missionID string, limit int) ([]models.AnalysisSnapshot, error) {
	start := time.Now()

	query := `SELECT id, mission_id, status, summary, created_at, event_count, window_minutes
		FROM analysis_snapshots WHERE 1=1`
	args := []interface{}{}

	if missionID != "" {
		query += " AND mission_id = ?"
		args = append(args, missionID)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "analysis_snapshots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis snapshots: %w", err)
	}
	defer closeQuietly(rows)

	var snapshots []models.AnalysisSnapshot
	for rows.Next() {
		var (
			snap      models.AnalysisSnapshot
			missionID sql.NullString
			summary   sql.NullString
		)
		if err := rows.Scan(&snap.ID, &missionID, &snap.Status, &summary, &snap.CreatedAt, &snap.EventCount, &snap.WindowMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan analysis snapshot: %w", err)
		}
		snap.MissionID = missionID.String
		snap.Summary = summary.String
		snap.CreatedAt = snap.CreatedAt.UTC()
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis snapshots: %w", err)
	}
	return snapshots, nil
}
