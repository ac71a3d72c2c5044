// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package index

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// FTSIndex provides keyword search over atom titles, bodies, and tags
// via SQLite FTS5 with porter stemming.
type FTSIndex struct {
	db *sql.DB
}

// SearchResult is one full-text match.
type SearchResult struct {
	Hash   substrate.Hash `json:"hash"`
	Domain string         `json:"domain"`
	Title  string         `json:"title"`
	Score  float64        `json:"score"`
}

// NewFTSIndex opens (or creates) the full-text database at dbPath.
func NewFTSIndex(dbPath string) (*FTSIndex, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "opening fts db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "pinging fts db: %w", err)
	}

	const ddl = `
CREATE VIRTUAL TABLE IF NOT EXISTS atoms_fts USING fts5(
	hash UNINDEXED,
	domain,
	title,
	body,
	tags,
	tokenize='porter unicode61'
);
`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "migrating fts table: %w", err)
	}

	return &FTSIndex{db: db}, nil
}

// Close closes the underlying database connection.
func (f *FTSIndex) Close() error {
	return f.db.Close()
}

// IndexAKU replaces one atom's full-text row.
func (f *FTSIndex) IndexAKU(ctx context.Context, aku *substrate.AKU) error {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "beginning fts tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 has no ON CONFLICT; delete first for upsert.
	if _, err := tx.ExecContext(ctx, `DELETE FROM atoms_fts WHERE hash = ?`, string(aku.ID)); err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "deleting fts row %s: %w", aku.ID, err)
	}

	const q = `INSERT INTO atoms_fts (hash, domain, title, body, tags) VALUES (?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q,
		string(aku.ID),
		aku.Meta.Domain,
		extractTitle(aku.Body),
		aku.Body,
		strings.Join(aku.Meta.Tags, " "),
	)
	if err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "indexing fts row %s: %w", aku.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "committing fts index: %w", err)
	}
	return nil
}

// Search runs a sanitized OR query over the index and ranks by bm25.
// A query with no salvageable tokens returns empty results. When the
// MATCH itself fails on an exotic query the search degrades to a LIKE
// scan with a flat score.
func (f *FTSIndex) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	sanitized := sanitizeQuery(query)
	if sanitized == "" {
		return []SearchResult{}, nil
	}

	const q = `SELECT hash, domain, title, bm25(atoms_fts) FROM atoms_fts
WHERE atoms_fts MATCH ?
ORDER BY bm25(atoms_fts) LIMIT ?`

	rows, err := f.db.QueryContext(ctx, q, sanitized, limit)
	if err != nil {
		return f.likeSearch(ctx, query, limit)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var hash, domain, title string
		var rank float64
		if err := rows.Scan(&hash, &domain, &title, &rank); err != nil {
			return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "scanning fts row: %w", err)
		}
		results = append(results, SearchResult{
			Hash:   substrate.Hash(hash),
			Domain: domain,
			Title:  title,
			Score:  -rank, // bm25 reports better matches as more negative
		})
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, rows.Err()
}

func (f *FTSIndex) likeSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	const q = `SELECT hash, domain, title FROM atoms_fts
WHERE body LIKE ? OR title LIKE ? LIMIT ?`

	pattern := "%" + query + "%"
	rows, err := f.db.QueryContext(ctx, q, pattern, pattern, limit)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "fallback text search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []SearchResult{}
	for rows.Next() {
		var hash, domain, title string
		if err := rows.Scan(&hash, &domain, &title); err != nil {
			return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "scanning fallback row: %w", err)
		}
		results = append(results, SearchResult{
			Hash:   substrate.Hash(hash),
			Domain: domain,
			Title:  title,
			Score:  1.0,
		})
	}
	return results, rows.Err()
}

// Rebuild drops the full-text rows and replays the atom stream.
func (f *FTSIndex) Rebuild(ctx context.Context, source AtomSource) (int, error) {
	if _, err := f.db.ExecContext(ctx, `DELETE FROM atoms_fts`); err != nil {
		return 0, suberr.Errorf(suberr.CodeIndexRebuildFailure, "clearing fts rows: %w", err)
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
		if err := f.IndexAKU(ctx, aku); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// sanitizeQuery turns free text into a safe FTS5 OR query: each
// whitespace token is stripped of MATCH syntax characters and quoted.
func sanitizeQuery(query string) string {
	var tokens []string
	for _, token := range strings.Fields(query) {
		cleaned := strings.Map(func(r rune) rune {
			switch r {
			case '"', ':', '*', '^', '~', '(', ')', '{', '}', '[', ']', '\\':
				return -1
			}
			return r
		}, token)
		if cleaned == "" {
			continue
		}
		tokens = append(tokens, `"`+cleaned+`"`)
	}
	return strings.Join(tokens, " OR ")
}

// extractTitle picks a display title for a body: the first markdown
// heading if present, otherwise the first non-blank line, truncated.
func extractTitle(body string) string {
	const maxTitle = 100

	lines := strings.Split(body, "\n")

	for _, line := range lines {
		if after, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return truncate(strings.TrimSpace(after), maxTitle)
		}
	}
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return truncate(trimmed, maxTitle)
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
