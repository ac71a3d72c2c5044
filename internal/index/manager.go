// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package index

import (
	"context"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// Manager opens the enabled indexes under a store's indexes/ directory
// and fans writes out to them. Disabled indexes stay nil and their
// accessors return an index-disabled error rather than a nil pointer.
type Manager struct {
	graph    *GraphIndex
	temporal *TemporalIndex
	fts      *FTSIndex
	vector   *VectorIndex
	logger   *slog.Logger
}

// NewManager opens the indexes enabled in cfg under dir (the store's
// indexes/ directory). An error closes anything already opened.
func NewManager(dir string, cfg substrate.IndexesConfig, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger}

	var err error
	if cfg.Graph.Enabled {
		if m.graph, err = NewGraphIndex(filepath.Join(dir, "graph.db")); err != nil {
			return nil, err
		}
	}
	if cfg.Temporal.Enabled {
		if m.temporal, err = NewTemporalIndex(filepath.Join(dir, "temporal.db")); err != nil {
			_ = m.Close()
			return nil, err
		}
	}
	if cfg.FTS.Enabled {
		if m.fts, err = NewFTSIndex(filepath.Join(dir, "fts.db")); err != nil {
			_ = m.Close()
			return nil, err
		}
	}
	if cfg.Vectors.Enabled {
		if m.vector, err = NewVectorIndex(filepath.Join(dir, "vectors.db"), 0); err != nil {
			_ = m.Close()
			return nil, err
		}
	}

	return m, nil
}

// Close closes every open index, returning the first error.
func (m *Manager) Close() error {
	var firstErr error
	if m.graph != nil {
		if err := m.graph.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.graph = nil
	}
	if m.temporal != nil {
		if err := m.temporal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.temporal = nil
	}
	if m.fts != nil {
		if err := m.fts.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.fts = nil
	}
	if m.vector != nil {
		if err := m.vector.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.vector = nil
	}
	return firstErr
}

// Graph returns the graph index or an index-disabled error.
func (m *Manager) Graph() (*GraphIndex, error) {
	if m.graph == nil {
		return nil, suberr.New(suberr.CodeIndexDisabled, "graph index is disabled", suberr.FieldIndex("graph"))
	}
	return m.graph, nil
}

// Temporal returns the temporal index or an index-disabled error.
func (m *Manager) Temporal() (*TemporalIndex, error) {
	if m.temporal == nil {
		return nil, suberr.New(suberr.CodeIndexDisabled, "temporal index is disabled", suberr.FieldIndex("temporal"))
	}
	return m.temporal, nil
}

// FTS returns the full-text index or an index-disabled error.
func (m *Manager) FTS() (*FTSIndex, error) {
	if m.fts == nil {
		return nil, suberr.New(suberr.CodeIndexDisabled, "full-text index is disabled", suberr.FieldIndex("fts"))
	}
	return m.fts, nil
}

// Vector returns the vector index or an index-disabled error.
func (m *Manager) Vector() (*VectorIndex, error) {
	if m.vector == nil {
		return nil, suberr.New(suberr.CodeIndexDisabled, "vector index is disabled", suberr.FieldIndex("vectors"))
	}
	return m.vector, nil
}

// IndexAKU writes one atom through to every enabled index. Index
// failures are logged and swallowed: the store is authoritative and a
// lagging index is repaired by rebuild, never by failing ingestion.
func (m *Manager) IndexAKU(ctx context.Context, aku *substrate.AKU) {
	if m.graph != nil {
		if err := m.graph.IndexAKU(ctx, aku); err != nil {
			m.logger.Warn("graph index write failed", "hash", aku.ID, "error", err)
		}
	}
	if m.temporal != nil {
		if err := m.temporal.IndexAKU(ctx, aku); err != nil {
			m.logger.Warn("temporal index write failed", "hash", aku.ID, "error", err)
		}
	}
	if m.fts != nil {
		if err := m.fts.IndexAKU(ctx, aku); err != nil {
			m.logger.Warn("fts index write failed", "hash", aku.ID, "error", err)
		}
	}
}

// RebuildResult reports per-index rebuild counts.
type RebuildResult struct {
	Graph    int `json:"graph"`
	Temporal int `json:"temporal"`
	FTS      int `json:"fts"`
}

// RebuildAll rebuilds every enabled rebuildable index concurrently
// from the atom stream. The vector index is excluded: embeddings
// cannot be derived from atom content without a provider.
func (m *Manager) RebuildAll(ctx context.Context, source AtomSource) (*RebuildResult, error) {
	result := &RebuildResult{}
	g, ctx := errgroup.WithContext(ctx)

	if m.graph != nil {
		g.Go(func() error {
			n, err := m.graph.Rebuild(ctx, source)
			result.Graph = n
			return err
		})
	}
	if m.temporal != nil {
		g.Go(func() error {
			n, err := m.temporal.Rebuild(ctx, source)
			result.Temporal = n
			return err
		})
	}
	if m.fts != nil {
		g.Go(func() error {
			n, err := m.fts.Rebuild(ctx, source)
			result.FTS = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}
