// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// VectorIndex stores unit-normalized embeddings and serves cosine
// similarity search by exhaustive scan. Embeddings arrive from an
// external provider; the index only enforces a consistent dimension.
type VectorIndex struct {
	db         *sql.DB
	dimensions int
}

// VectorResult is one nearest-neighbor match. Similarity is cosine in
// [-1, 1]; Distance is the angular distance sqrt(2*(1-similarity)).
type VectorResult struct {
	Hash       substrate.Hash `json:"hash"`
	Similarity float64        `json:"similarity"`
	Distance   float64        `json:"distance"`
}

// NewVectorIndex opens (or creates) the embeddings database at dbPath.
// The first stored vector pins the dimension when dimensions is 0.
func NewVectorIndex(dbPath string, dimensions int) (*VectorIndex, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "opening vector db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "pinging vector db: %w", err)
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS embeddings (
	hash      TEXT PRIMARY KEY,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "migrating embedding tables: %w", err)
	}

	v := &VectorIndex{db: db, dimensions: dimensions}
	if err := v.loadDimensions(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return v, nil
}

func (v *VectorIndex) loadDimensions() error {
	var stored string
	err := v.db.QueryRow(`SELECT value FROM index_meta WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "reading stored dimension: %w", err)
	}

	dims, err := strconv.Atoi(stored)
	if err != nil || dims <= 0 {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "corrupt stored dimension %q", stored)
	}

	if v.dimensions != 0 && v.dimensions != dims {
		return suberr.New(suberr.CodeVectorDimensionMismatch, "index dimension differs from configured dimension",
			suberr.Field("stored", dims), suberr.Field("configured", v.dimensions))
	}
	v.dimensions = dims
	return nil
}

// Close closes the underlying database connection.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

// Dimensions returns the pinned embedding dimension, 0 before any
// vector has been stored.
func (v *VectorIndex) Dimensions() int {
	return v.dimensions
}

// Store normalizes and persists an embedding for a hash. The first
// store pins the index dimension; later vectors must match it exactly.
func (v *VectorIndex) Store(ctx context.Context, hash substrate.Hash, embedding []float32) error {
	if len(embedding) == 0 {
		return suberr.New(suberr.CodeEmbedInputInvalid, "empty embedding")
	}

	if v.dimensions == 0 {
		v.dimensions = len(embedding)
		if _, err := v.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO index_meta (key, value) VALUES ('dimensions', ?)`,
			strconv.Itoa(v.dimensions)); err != nil {
			return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "pinning dimension: %w", err)
		}
	} else if len(embedding) != v.dimensions {
		return suberr.New(suberr.CodeVectorDimensionMismatch, "embedding dimension mismatch",
			suberr.FieldHash(string(hash)),
			suberr.Field("expected", v.dimensions),
			suberr.Field("got", len(embedding)))
	}

	normalized := normalizeL2(embedding)
	const q = `INSERT OR REPLACE INTO embeddings (hash, embedding) VALUES (?, ?)`
	if _, err := v.db.ExecContext(ctx, q, string(hash), encodeVector(normalized)); err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "storing embedding %s: %w", hash, err)
	}
	return nil
}

// Get returns the stored (normalized) embedding for a hash, or an
// embedding-not-found error.
func (v *VectorIndex) Get(ctx context.Context, hash substrate.Hash) ([]float32, error) {
	var blob []byte
	err := v.db.QueryRowContext(ctx,
		`SELECT embedding FROM embeddings WHERE hash = ?`, string(hash)).Scan(&blob)
	switch {
	case err == sql.ErrNoRows:
		return nil, suberr.New(suberr.CodeVectorEmbeddingNotFound, "no embedding stored for atom",
			suberr.FieldHash(string(hash)))
	case err != nil:
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "reading embedding %s: %w", hash, err)
	}
	return decodeVector(blob), nil
}

// Has reports whether an embedding exists for the hash.
func (v *VectorIndex) Has(ctx context.Context, hash substrate.Hash) (bool, error) {
	var one int
	err := v.db.QueryRowContext(ctx,
		`SELECT 1 FROM embeddings WHERE hash = ?`, string(hash)).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "checking embedding %s: %w", hash, err)
	}
	return true, nil
}

// Delete removes the embedding for a hash. Reports whether a row was
// actually removed.
func (v *VectorIndex) Delete(ctx context.Context, hash substrate.Hash) (bool, error) {
	result, err := v.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE hash = ?`, string(hash))
	if err != nil {
		return false, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "deleting embedding %s: %w", hash, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "deleting embedding %s: %w", hash, err)
	}
	return affected > 0, nil
}

// Search scans every stored embedding, ranks by cosine similarity
// against query, filters below minSimilarity, and returns the top k.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int, minSimilarity float64) ([]VectorResult, error) {
	if k <= 0 {
		k = 10
	}
	if v.dimensions != 0 && len(query) != v.dimensions {
		return nil, suberr.New(suberr.CodeVectorDimensionMismatch, "query dimension mismatch",
			suberr.Field("expected", v.dimensions),
			suberr.Field("got", len(query)))
	}

	normalized := normalizeL2(query)

	rows, err := v.db.QueryContext(ctx, `SELECT hash, embedding FROM embeddings`)
	if err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "scanning embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []VectorResult{}
	for rows.Next() {
		var hash string
		var blob []byte
		if err := rows.Scan(&hash, &blob); err != nil {
			return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "scanning embedding row: %w", err)
		}

		similarity := dot(normalized, decodeVector(blob))
		if similarity < minSimilarity {
			continue
		}
		results = append(results, VectorResult{
			Hash:       substrate.Hash(hash),
			Similarity: similarity,
			Distance:   math.Sqrt(2 * (1 - similarity)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "iterating embeddings: %w", err)
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// FindNearest returns up to k stored atoms most similar to the atom's
// own embedding, excluding the atom itself. The atom must have an
// embedding.
func (v *VectorIndex) FindNearest(ctx context.Context, hash substrate.Hash, k int) ([]VectorResult, error) {
	if k <= 0 {
		k = 10
	}

	embedding, err := v.Get(ctx, hash)
	if err != nil {
		return nil, err
	}

	candidates, err := v.Search(ctx, embedding, k+1, 0)
	if err != nil {
		return nil, err
	}

	results := make([]VectorResult, 0, k)
	for _, candidate := range candidates {
		if candidate.Hash == hash {
			continue
		}
		results = append(results, candidate)
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// Count returns the number of stored embeddings.
func (v *VectorIndex) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count); err != nil {
		return 0, suberr.Errorf(suberr.CodeIndexDatabaseFailure, "counting embeddings: %w", err)
	}
	return count, nil
}

// Clear removes all embeddings and the pinned dimension. Embeddings
// are not rebuildable from the atom stream alone; after Clear they
// must be regenerated through a provider.
func (v *VectorIndex) Clear(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "clearing embeddings: %w", err)
	}
	if _, err := v.db.ExecContext(ctx, `DELETE FROM index_meta WHERE key = 'dimensions'`); err != nil {
		return suberr.Errorf(suberr.CodeIndexDatabaseFailure, "clearing pinned dimension: %w", err)
	}
	v.dimensions = 0
	return nil
}

// sortResults orders by descending similarity, hash ascending on ties.
func sortResults(results []VectorResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Hash < results[j].Hash
	})
}

// normalizeL2 scales a vector to unit length. Zero vectors pass
// through unchanged and score 0 against everything.
func normalizeL2(vec []float32) []float32 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, x := range vec {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot is cosine similarity for unit vectors.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, x := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
