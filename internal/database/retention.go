// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package database

import (
	"context"
	"sync"
	"time"

	"github.com/sentinelai/sentinel/internal/logging"
	"github.com/sentinelai/sentinel/internal/metrics"
)

// retentionStateKey stores the last sweep date (ISO date) in service_state so
// the once-per-day guard survives restarts.
const retentionStateKey = "retention_last_cleanup"

// RetentionSweeper deletes events and analysis snapshots older than the
// configured retention window. Sweeps run at most once per UTC day, using a
// date-only cutoff, and fail soft: errors are logged and never surface to the
// write path that triggered them.
type RetentionSweeper struct {
	db   *DB
	days int

	mu       sync.Mutex
	lastDate string // cached copy of the durable state

	// now is injectable for tests.
	now func() time.Time
}

// NewRetentionSweeper creates a sweeper retaining the given number of days.
// Values below 1 are clamped to 1.
func NewRetentionSweeper(db *DB, days int) *RetentionSweeper {
	if days < 1 {
		days = 1
	}
	s := &RetentionSweeper{db: db, days: days, now: time.Now}
	s.loadState()
	return s
}

func (s *RetentionSweeper) loadState() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stored, err := s.db.GetState(ctx, retentionStateKey)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load retention sweep state")
		return
	}
	s.lastDate = stored
}

// MaybeSweep runs the retention sweep if it has not yet run today (UTC).
// Designed to be called from the event write path; it never returns an error.
func (s *RetentionSweeper) MaybeSweep(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().UTC().Format(time.DateOnly)
	if s.lastDate == today {
		return
	}

	cutoff := s.now().UTC().AddDate(0, 0, -s.days).Format(time.DateOnly)

	// When nothing is old enough, record the date anyway so the check does
	// not repeat until tomorrow.
	hasOld, err := s.hasExpiredRows(ctx, cutoff)
	if err != nil {
		logging.Warn().Err(err).Msg("Retention sweep check failed")
		return
	}
	if !hasOld {
		s.recordSweepDate(ctx, today)
		return
	}

	purged, err := s.deleteExpiredRows(ctx, cutoff)
	if err != nil {
		logging.Warn().Err(err).Msg("Retention sweep failed")
		return
	}

	metrics.EventsPurged.Add(float64(purged))
	logging.Info().
		Int64("rows_purged", purged).
		Str("cutoff_date", cutoff).
		Msg("Retention sweep completed")

	s.recordSweepDate(ctx, today)
}

// hasExpiredRows reports whether any event or snapshot predates the cutoff
// date (date-only comparison).
func (s *RetentionSweeper) hasExpiredRows(ctx context.Context, cutoff string) (bool, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM (SELECT 1 FROM events WHERE CAST(timestamp AS DATE) < CAST(? AS DATE) LIMIT 1))
		      + (SELECT COUNT(*) FROM (SELECT 1 FROM analysis_snapshots WHERE CAST(created_at AS DATE) < CAST(? AS DATE) LIMIT 1))`,
		cutoff, cutoff).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// deleteExpiredRows removes expired events and snapshots in one transaction;
// a failure on either delete rolls back both.
func (s *RetentionSweeper) deleteExpiredRows(ctx context.Context, cutoff string) (int64, error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	start := time.Now()
	res, err := tx.ExecContext(ctx,
		`DELETE FROM events WHERE CAST(timestamp AS DATE) < CAST(? AS DATE)`, cutoff)
	metrics.RecordDBQuery("delete", "events", time.Since(start), err)
	if err != nil {
		return 0, err
	}
	eventRows, _ := res.RowsAffected()

	start = time.Now()
	res, err = tx.ExecContext(ctx,
		`DELETE FROM analysis_snapshots WHERE CAST(created_at AS DATE) < CAST(? AS DATE)`, cutoff)
	metrics.RecordDBQuery("delete", "analysis_snapshots", time.Since(start), err)
	if err != nil {
		return 0, err
	}
	snapshotRows, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return eventRows + snapshotRows, nil
}

func (s *RetentionSweeper) recordSweepDate(ctx context.Context, today string) {
	if err := s.db.SetState(ctx, retentionStateKey, today); err != nil {
		logging.Warn().Err(err).Msg("Failed to persist retention sweep date")
		return
	}
	s.lastDate = today
}
