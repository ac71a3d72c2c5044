// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package index_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-dev/substrate/internal/index"
	"github.com/substrate-dev/substrate/internal/substrate"
)

func testTemporal(t *testing.T) *index.TemporalIndex {
	t.Helper()
	ti, err := index.NewTemporalIndex(filepath.Join(t.TempDir(), "temporal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ti.Close() })
	return ti
}

func timelineAKU(body string, created time.Time) *substrate.AKU {
	meta := substrate.Meta{
		Created:    created,
		Source:     substrate.Source{Type: substrate.SourceUser, Timestamp: created},
		Domain:     "test",
		Type:       substrate.TypeFact,
		Confidence: 0.8,
		Volatility: substrate.VolatilityEvolving,
		Links:      substrate.Links{},
		Tags:       []string{},
	}
	return &substrate.AKU{ID: substrate.ComputeHash(meta, body), Meta: meta, Body: body}
}

func TestTemporalIndex_Recent(t *testing.T) {
	ctx := context.Background()
	ti := testTemporal(t)

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	oldest := timelineAKU("oldest", base)
	middle := timelineAKU("middle", base.Add(time.Hour))
	newest := timelineAKU("newest", base.Add(2*time.Hour))
	for _, aku := range []*substrate.AKU{middle, oldest, newest} {
		require.NoError(t, ti.IndexAKU(ctx, aku))
	}

	recent, err := ti.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, newest.ID, recent[0].Hash)
	assert.Equal(t, middle.ID, recent[1].Hash)
}

func TestTemporalIndex_SubSecondOrdering(t *testing.T) {
	ctx := context.Background()
	ti := testTemporal(t)

	// Fractions with trailing zeros must still sort chronologically.
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	first := timelineAKU("first", base.Add(100*time.Millisecond))
	second := timelineAKU("second", base.Add(120*time.Millisecond))
	require.NoError(t, ti.IndexAKU(ctx, first))
	require.NoError(t, ti.IndexAKU(ctx, second))

	recent, err := ti.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].Hash)
	assert.Equal(t, first.ID, recent[1].Hash)
}

func TestTemporalIndex_InTimeRange(t *testing.T) {
	ctx := context.Background()
	ti := testTemporal(t)

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	before := timelineAKU("before", base.Add(-time.Hour))
	inside := timelineAKU("inside", base.Add(time.Hour))
	edge := timelineAKU("edge", base.Add(2*time.Hour))
	after := timelineAKU("after", base.Add(3*time.Hour))
	for _, aku := range []*substrate.AKU{before, inside, edge, after} {
		require.NoError(t, ti.IndexAKU(ctx, aku))
	}

	entries, err := ti.InTimeRange(ctx, base, base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2, "range bounds are inclusive")
	assert.Equal(t, edge.ID, entries[0].Hash)
	assert.Equal(t, inside.ID, entries[1].Hash)
	assert.True(t, entries[1].Created.Equal(inside.Meta.Created))

	capped, err := ti.InTimeRange(ctx, base.Add(-2*time.Hour), base.Add(4*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, capped, 2, "limit caps the result set")
	assert.Equal(t, after.ID, capped[0].Hash, "newest entries win under the cap")
}

func TestTemporalIndex_Rebuild(t *testing.T) {
	ctx := context.Background()
	ti := testTemporal(t)

	require.NoError(t, ti.IndexAKU(ctx, timelineAKU("stale", time.Now().UTC())))

	s := testStore(t)
	kept := mustIngest(t, s, substrate.IngestInput{Body: "kept", Domain: "t"})

	n, err := ti.Rebuild(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	recent, err := ti.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, kept, recent[0].Hash)
}
