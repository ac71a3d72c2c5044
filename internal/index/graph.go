// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package index

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// GraphIndex answers structural queries: by-domain, by-type, by-tag
// lookups and link traversal. It covers embedded links only; external
// links are served directly from the link log by the store.
type GraphIndex struct {
	db *sql.DB
}

// NewGraphIndex opens (or creates) the graph database at dbPath.
func NewGraphIndex(dbPath string) (*GraphIndex, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "opening graph db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "pinging graph db: %w", err)
	}

	if err := migrateGraph(db); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "migrating graph tables: %w", err)
	}

	return &GraphIndex{db: db}, nil
}

func migrateGraph(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS atoms (
	hash       TEXT PRIMARY KEY,
	domain     TEXT NOT NULL,
	type       TEXT NOT NULL,
	confidence REAL NOT NULL,
	volatility TEXT NOT NULL,
	created    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	from_hash TEXT NOT NULL,
	to_hash   TEXT NOT NULL,
	relation  TEXT NOT NULL,
	UNIQUE(from_hash, to_hash, relation),
	FOREIGN KEY(from_hash) REFERENCES atoms(hash)
);

CREATE TABLE IF NOT EXISTS tags (
	hash TEXT NOT NULL,
	tag  TEXT NOT NULL,
	UNIQUE(hash, tag),
	FOREIGN KEY(hash) REFERENCES atoms(hash)
);

CREATE INDEX IF NOT EXISTS idx_atoms_domain ON atoms(domain);
CREATE INDEX IF NOT EXISTS idx_atoms_type ON atoms(type);
CREATE INDEX IF NOT EXISTS idx_atoms_created ON atoms(created);
CREATE INDEX IF NOT EXISTS idx_links_from ON links(from_hash);
CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_hash);
CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (g *GraphIndex) Close() error {
	return g.db.Close()
}

// IndexAKU inserts or refreshes one atom's rows. Atoms are immutable,
// so re-indexing the same hash is a no-op apart from replacing
// identical rows.
func (g *GraphIndex) IndexAKU(ctx context.Context, aku *substrate.AKU) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "beginning graph tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const atomQ = `INSERT OR REPLACE INTO atoms (hash, domain, type, confidence, volatility, created)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, atomQ,
		string(aku.ID),
		aku.Meta.Domain,
		string(aku.Meta.Type),
		aku.Meta.Confidence,
		string(aku.Meta.Volatility),
		formatTime(aku.Meta.Created),
	)
	if err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "indexing atom %s: %w", aku.ID, err)
	}

	for relation, targets := range aku.Meta.Links {
		for _, target := range targets {
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO links (from_hash, to_hash, relation) VALUES (?, ?, ?)`,
				string(aku.ID), string(target), string(relation))
			if err != nil {
				return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "indexing link %s -> %s: %w", aku.ID, target, err)
			}
		}
	}

	for _, tag := range aku.Meta.Tags {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (hash, tag) VALUES (?, ?)`,
			string(aku.ID), tag)
		if err != nil {
			return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "indexing tag %q on %s: %w", tag, aku.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "committing graph index: %w", err)
	}
	return nil
}

// defaultLookupLimit bounds ByDomain, ByType, ByTag and InTimeRange
// result sets when the caller passes limit <= 0.
const defaultLookupLimit = 100

// ByDomain returns up to limit hashes whose domain starts with prefix,
// most recently created first. Plain string prefix match: "phy" matches
// both "physics" and "phy/sub".
func (g *GraphIndex) ByDomain(ctx context.Context, prefix string, limit int) ([]substrate.Hash, error) {
	if limit <= 0 {
		limit = defaultLookupLimit
	}
	const q = `SELECT hash FROM atoms
WHERE domain LIKE ? || '%'
ORDER BY created DESC, hash
LIMIT ?`

	rows, err := g.db.QueryContext(ctx, q, prefix, limit)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "querying by domain: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanHashes(rows)
}

// ByType returns up to limit hashes of atoms of the given knowledge type.
func (g *GraphIndex) ByType(ctx context.Context, knowledgeType substrate.KnowledgeType, limit int) ([]substrate.Hash, error) {
	if limit <= 0 {
		limit = defaultLookupLimit
	}
	const q = `SELECT hash FROM atoms WHERE type = ? ORDER BY created DESC, hash LIMIT ?`

	rows, err := g.db.QueryContext(ctx, q, string(knowledgeType), limit)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "querying by type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanHashes(rows)
}

// ByTag returns up to limit hashes of atoms carrying the tag.
func (g *GraphIndex) ByTag(ctx context.Context, tag string, limit int) ([]substrate.Hash, error) {
	if limit <= 0 {
		limit = defaultLookupLimit
	}
	const q = `SELECT t.hash FROM tags t
JOIN atoms a ON a.hash = t.hash
WHERE t.tag = ?
ORDER BY a.created DESC, t.hash
LIMIT ?`

	rows, err := g.db.QueryContext(ctx, q, tag, limit)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "querying by tag: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanHashes(rows)
}

// Edge is one directed link row.
type Edge struct {
	From     substrate.Hash         `json:"from"`
	To       substrate.Hash         `json:"to"`
	Relation substrate.RelationType `json:"relation"`
}

// OutgoingLinks returns edges leaving hash, ordered by target hash for
// deterministic traversal.
func (g *GraphIndex) OutgoingLinks(ctx context.Context, hash substrate.Hash) ([]Edge, error) {
	const q = `SELECT from_hash, to_hash, relation FROM links
WHERE from_hash = ? ORDER BY to_hash, relation`
	return g.queryEdges(ctx, q, string(hash))
}

// IncomingLinks returns edges arriving at hash.
func (g *GraphIndex) IncomingLinks(ctx context.Context, hash substrate.Hash) ([]Edge, error) {
	const q = `SELECT from_hash, to_hash, relation FROM links
WHERE to_hash = ? ORDER BY from_hash, relation`
	return g.queryEdges(ctx, q, string(hash))
}

func (g *GraphIndex) queryEdges(ctx context.Context, q string, arg string) ([]Edge, error) {
	rows, err := g.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "querying links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []Edge
	for rows.Next() {
		var from, to, relation string
		if err := rows.Scan(&from, &to, &relation); err != nil {
			return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "scanning link row: %w", err)
		}
		edges = append(edges, Edge{
			From:     substrate.Hash(from),
			To:       substrate.Hash(to),
			Relation: substrate.RelationType(relation),
		})
	}
	return edges, rows.Err()
}

// TraversalNode is one reachable atom tagged with its BFS depth.
type TraversalNode struct {
	Hash  substrate.Hash `json:"hash"`
	Depth int            `json:"depth"`
}

// neighborHashes returns the nodes adjacent to hash along the selected
// direction: link targets for out, link sources for in, targets then
// sources for both. Each leg is hash-ordered so traversal order is
// deterministic.
func (g *GraphIndex) neighborHashes(ctx context.Context, hash substrate.Hash, direction substrate.Direction) ([]substrate.Hash, error) {
	var neighbors []substrate.Hash

	if direction == substrate.DirectionOut || direction == substrate.DirectionBoth {
		edges, err := g.OutgoingLinks(ctx, hash)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			neighbors = append(neighbors, edge.To)
		}
	}

	if direction == substrate.DirectionIn || direction == substrate.DirectionBoth {
		edges, err := g.IncomingLinks(ctx, hash)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			neighbors = append(neighbors, edge.From)
		}
	}

	return neighbors, nil
}

// Traverse walks links breadth-first from start up to maxDepth hops,
// following edges in the given direction (out, in, or both). The start
// node appears at depth 0. Cycles terminate via the visited set.
func (g *GraphIndex) Traverse(ctx context.Context, start substrate.Hash, maxDepth int, direction substrate.Direction) ([]TraversalNode, error) {
	if direction == "" {
		direction = substrate.DirectionBoth
	}

	visited := map[substrate.Hash]bool{start: true}
	result := []TraversalNode{{Hash: start, Depth: 0}}
	frontier := []substrate.Hash{start}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []substrate.Hash
		for _, hash := range frontier {
			neighbors, err := g.neighborHashes(ctx, hash, direction)
			if err != nil {
				return nil, err
			}
			for _, neighbor := range neighbors {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				result = append(result, TraversalNode{Hash: neighbor, Depth: depth})
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return result, nil
}

// defaultPathDepth bounds ShortestPath when the caller passes
// maxDepth <= 0.
const defaultPathDepth = 5

// ShortestPath returns a minimal-hop path from start to goal within
// maxDepth hops, inclusive of both endpoints, or nil when no path
// exists. Links are navigable in both stored directions, so a path may
// step against an edge's orientation. Ties break on lexicographic hash
// order within each leg.
func (g *GraphIndex) ShortestPath(ctx context.Context, start, goal substrate.Hash, maxDepth int) ([]substrate.Hash, error) {
	if maxDepth <= 0 {
		maxDepth = defaultPathDepth
	}
	if start == goal {
		return []substrate.Hash{start}, nil
	}

	parent := map[substrate.Hash]substrate.Hash{start: start}
	frontier := []substrate.Hash{start}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []substrate.Hash
		for _, hash := range frontier {
			neighbors, err := g.neighborHashes(ctx, hash, substrate.DirectionBoth)
			if err != nil {
				return nil, err
			}
			for _, neighbor := range neighbors {
				if _, seen := parent[neighbor]; seen {
					continue
				}
				parent[neighbor] = hash
				if neighbor == goal {
					return reconstructPath(parent, start, goal), nil
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return nil, nil
}

func reconstructPath(parent map[substrate.Hash]substrate.Hash, start, goal substrate.Hash) []substrate.Hash {
	var reversed []substrate.Hash
	for at := goal; at != start; at = parent[at] {
		reversed = append(reversed, at)
	}
	reversed = append(reversed, start)

	path := make([]substrate.Hash, len(reversed))
	for i, hash := range reversed {
		path[len(reversed)-1-i] = hash
	}
	return path
}

// Count returns the number of indexed atoms.
func (g *GraphIndex) Count(ctx context.Context) (int64, error) {
	var count int64
	err := g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM atoms`).Scan(&count)
	if err != nil {
		return 0, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "counting atoms: %w", err)
	}
	return count, nil
}

// Rebuild drops all index rows and replays the atom stream. Returns
// the number of atoms indexed. Children clear before parents to keep
// foreign keys satisfied.
func (g *GraphIndex) Rebuild(ctx context.Context, source AtomSource) (int, error) {
	for _, table := range []string{"tags", "links", "atoms"} {
		if _, err := g.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, suberr.Errorf(suberr.CodeIndexRebuildFailure, "clearing %s: %w", table, err)
		}
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
		if err := g.IndexAKU(ctx, aku); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func scanHashes(rows *sql.Rows) ([]substrate.Hash, error) {
	var hashes []substrate.Hash
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "scanning hash row: %w", err)
		}
		hashes = append(hashes, substrate.Hash(hash))
	}
	return hashes, rows.Err()
}
