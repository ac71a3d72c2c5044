// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package index

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// TemporalIndex answers time-ordered queries over atom creation
// timestamps.
type TemporalIndex struct {
	db *sql.DB
}

// TimelineEntry is one atom on the timeline.
type TimelineEntry struct {
	Hash    substrate.Hash `json:"hash"`
	Domain  string         `json:"domain"`
	Created time.Time      `json:"created"`
}

// NewTemporalIndex opens (or creates) the timeline database at dbPath.
func NewTemporalIndex(dbPath string) (*TemporalIndex, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "opening temporal db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "pinging temporal db: %w", err)
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS timeline (
	hash    TEXT PRIMARY KEY,
	domain  TEXT NOT NULL,
	created TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_timeline_created ON timeline(created);
CREATE INDEX IF NOT EXISTS idx_timeline_domain_created ON timeline(domain, created);
`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "migrating timeline table: %w", err)
	}

	return &TemporalIndex{db: db}, nil
}

// Close closes the underlying database connection.
func (t *TemporalIndex) Close() error {
	return t.db.Close()
}

// IndexAKU records one atom on the timeline.
func (t *TemporalIndex) IndexAKU(ctx context.Context, aku *substrate.AKU) error {
	const q = `INSERT OR REPLACE INTO timeline (hash, domain, created) VALUES (?, ?, ?)`
	_, err := t.db.ExecContext(ctx, q,
		string(aku.ID), aku.Meta.Domain, formatTime(aku.Meta.Created))
	if err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "indexing timeline entry %s: %w", aku.ID, err)
	}
	return nil
}

// Recent returns the limit most recently created atoms, newest first.
// Equal timestamps break ties on hash for stable output.
func (t *TemporalIndex) Recent(ctx context.Context, limit int) ([]TimelineEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	const q = `SELECT hash, domain, created FROM timeline
ORDER BY created DESC, hash LIMIT ?`

	rows, err := t.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "querying recent atoms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTimeline(rows)
}

// InTimeRange returns up to limit atoms created between from and to,
// both inclusive, newest first. limit <= 0 falls back to 100.
func (t *TemporalIndex) InTimeRange(ctx context.Context, from, to time.Time, limit int) ([]TimelineEntry, error) {
	if limit <= 0 {
		limit = defaultLookupLimit
	}
	const q = `SELECT hash, domain, created FROM timeline
WHERE created >= ? AND created <= ?
ORDER BY created DESC, hash
LIMIT ?`

	rows, err := t.db.QueryContext(ctx, q, formatTime(from), formatTime(to), limit)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "querying time range: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTimeline(rows)
}

// Rebuild drops the timeline and replays the atom stream.
func (t *TemporalIndex) Rebuild(ctx context.Context, source AtomSource) (int, error) {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM timeline`); err != nil {
		return 0, suberr.Errorf(suberr.CodeIndexRebuildFailure, "clearing timeline: %w", err)
	}

	count := 0
	for hash, err := range source.List(nil) {
		if err != nil {
			return count, suberr.Wrap(err, suberr.CodeIndexRebuildFailure, "listing atoms")
		}
		aku, err := source.Get(hash)
		if err != nil || aku == nil {
			continue
		}
		if err := t.IndexAKU(ctx, aku); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func scanTimeline(rows *sql.Rows) ([]TimelineEntry, error) {
	var entries []TimelineEntry
	for rows.Next() {
		var hash, domain, created string
		if err := rows.Scan(&hash, &domain, &created); err != nil {
			return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "scanning timeline row: %w", err)
		}
		ts, err := parseTime(created)
		if err != nil {
			return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "parsing timeline timestamp %q: %w", created, err)
		}
		entries = append(entries, TimelineEntry{
			Hash:    substrate.Hash(hash),
			Domain:  domain,
			Created: ts,
		})
	}
	return entries, rows.Err()
}
