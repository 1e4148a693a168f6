// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/internal/models"
)

// ErrAPIKeyNotFound is returned when no key matches the requested prefix.
var ErrAPIKeyNotFound = errors.New("api key not found")

// InsertAPIKey persists a new API key record and returns its ID.
func (db *DB) InsertAPIKey(ctx context.Context, key *models.APIKey) (int64, error) {
	start := time.Now()

	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO api_keys (key_prefix, key_hash, holder_email, holder_label, notes, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		key.KeyPrefix,
		key.KeyHash,
		key.HolderEmail,
		nullable(key.HolderLabel),
		nullable(key.Notes),
		createdAt.UTC(),
		nullableTime(key.ExpiresAt),
	).Scan(&id)
	metrics.RecordDBQuery("insert", "api_keys", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert api key: %w", err)
	}
	return id, nil
}

// GetAPIKeyByPrefix fetches the key record for a lookup prefix.
// Returns ErrAPIKeyNotFound when no record matches.
func (db *DB) GetAPIKeyByPrefix(ctx context.Context, prefix string) (*models.APIKey, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, key_prefix, key_hash, holder_email, holder_label, notes,
			created_at, expires_at, revoked_at, last_used_at, last_used_ip
		 FROM api_keys WHERE key_prefix = ? LIMIT 1`, prefix)

	key, err := scanAPIKey(row)
	metrics.RecordDBQuery("select", "api_keys", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query api key: %w", err)
	}
	return key, nil
}

// ListAPIKeys returns all key records, newest first. Revoked keys are
// included only when includeRevoked is set.
func (db *DB) ListAPIKeys(ctx context.Context, includeRevoked bool) ([]models.APIKey, error) {
	start := time.Now()

	query := `SELECT id, key_prefix, key_hash, holder_email, holder_label, notes,
		created_at, expires_at, revoked_at, last_used_at, last_used_ip
		FROM api_keys`
	if !includeRevoked {
		query += " WHERE revoked_at IS NULL"
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.conn.QueryContext(ctx, query)
	metrics.RecordDBQuery("select", "api_keys", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer closeQuietly(rows)

	var keys []models.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, *key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey marks the key with the given prefix as revoked.
// Returns ErrAPIKeyNotFound when no active key matches.
func (db *DB) RevokeAPIKey(ctx context.Context, prefix string) error {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE api_keys SET revoked_at = ? WHERE key_prefix = ? AND revoked_at IS NULL`,
		time.Now().UTC(), prefix)
	metrics.RecordDBQuery("update", "api_keys", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check revocation result: %w", err)
	}
	if affected == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// TouchAPIKey updates last-used telemetry. Best-effort; callers must never
// block a request on this.
func (db *DB) TouchAPIKey(ctx context.Context, id int64, remoteIP string) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ?, last_used_ip = ? WHERE id = ?`,
		time.Now().UTC(), nullable(remoteIP), id)
	metrics.RecordDBQuery("update", "api_keys", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update api key telemetry: %w", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAPIKey(row rowScanner) (*models.APIKey, error) {
	var (
		key         models.APIKey
		holderLabel sql.NullString
		notes       sql.NullString
		expiresAt   sql.NullTime
		revokedAt   sql.NullTime
		lastUsedAt  sql.NullTime
		lastUsedIP  sql.NullString
	)

	err := row.Scan(&key.ID, &key.KeyPrefix, &key.KeyHash, &key.HolderEmail, &holderLabel, &notes,
		&key.CreatedAt, &expiresAt, &revokedAt, &lastUsedAt, &lastUsedIP)
	if err != nil {
		return nil, err
	}

	key.HolderLabel = holderLabel.String
	key.Notes = notes.String
	key.CreatedAt = key.CreatedAt.UTC()
	key.LastUsedIP = lastUsedIP.String
	key.ExpiresAt = timePtr(expiresAt)
	key.RevokedAt = timePtr(revokedAt)
	key.LastUsedAt = timePtr(lastUsedAt)

	return &key, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
