// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates tables and indexes if they do not exist.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			description TEXT,
			mission_id TEXT,
			source TEXT,
			timestamp TIMESTAMP NOT NULL,
			metadata TEXT
		)`,

		`CREATE SEQUENCE IF NOT EXISTS analysis_snapshots_id_seq`,
		`CREATE TABLE IF NOT EXISTS analysis_snapshots (
			id BIGINT PRIMARY KEY DEFAULT nextval('analysis_snapshots_id_seq'),
			mission_id TEXT,
			status TEXT NOT NULL,
			summary TEXT,
			created_at TIMESTAMP NOT NULL,
			event_count INTEGER NOT NULL DEFAULT 0,
			window_minutes INTEGER NOT NULL DEFAULT 60
		)`,

		`CREATE SEQUENCE IF NOT EXISTS api_keys_id_seq`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id BIGINT PRIMARY KEY DEFAULT nextval('api_keys_id_seq'),
			key_prefix TEXT NOT NULL,
			key_hash TEXT NOT NULL,
			holder_email TEXT NOT NULL,
			holder_label TEXT,
			notes TEXT,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP,
			revoked_at TIMESTAMP,
			last_used_at TIMESTAMP,
			last_used_ip TEXT
		)`,

		// Durable key/value scalars, e.g. the retention sweep's last-run date.
		`CREATE TABLE IF NOT EXISTS service_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_mission ON events(mission_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_mission ON analysis_snapshots(mission_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created ON analysis_snapshots(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}
