// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

func TestLink_RequiresExistingSource(t *testing.T) {
	s := testStore(t)

	target := mustIngest(t, s, substrate.IngestInput{Body: "target", Domain: "test"})
	ghost := substrate.HashString("never ingested")

	err := s.Link(ghost, target, substrate.RelRelatesTo)
	require.Error(t, err)
	assert.True(t, suberr.HasCode(err, suberr.CodeSubstrateLinkSourceAbsent))
	assert.True(t, suberr.IsNotFound(err))

	// Forward reference: existing source, absent target is fine.
	source := mustIngest(t, s, substrate.IngestInput{Body: "source", Domain: "test"})
	require.NoError(t, s.Link(source, ghost, substrate.RelRelatesTo))
}

func TestLink_RejectsUnknownRelation(t *testing.T) {
	s := testStore(t)
	a := mustIngest(t, s, substrate.IngestInput{Body: "a", Domain: "test"})
	b := mustIngest(t, s, substrate.IngestInput{Body: "b", Domain: "test"})

	err := s.Link(a, b, "friends_with")
	assert.True(t, suberr.IsInvalidInput(err))
}

func TestNeighbors_MergesEmbeddedAndExternal(t *testing.T) {
	s := testStore(t)

	parent := mustIngest(t, s, substrate.IngestInput{Body: "parent", Domain: "test"})
	child := mustIngest(t, s, substrate.IngestInput{
		Body: "child", Domain: "test",
		Links: substrate.Links{substrate.RelDerivedFrom: {parent}},
	})
	sibling := mustIngest(t, s, substrate.IngestInput{Body: "sibling", Domain: "test"})
	require.NoError(t, s.Link(child, sibling, substrate.RelRelatesTo))
	require.NoError(t, s.Link(sibling, child, substrate.RelContradicts))

	out, err := s.Neighbors(child, substrate.DirectionOut)
	require.NoError(t, err)
	assert.Len(t, out, 2) // embedded derived_from + external relates_to
	for _, n := range out {
		assert.Equal(t, substrate.DirectionOut, n.Direction)
	}

	in, err := s.Neighbors(child, substrate.DirectionIn)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, sibling, in[0].Hash)
	assert.Equal(t, substrate.RelContradicts, in[0].Relation)

	both, err := s.Neighbors(child, substrate.DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, both, 3)
}

func TestNeighbors_DeduplicatesEdges(t *testing.T) {
	s := testStore(t)

	a := mustIngest(t, s, substrate.IngestInput{Body: "a", Domain: "test"})
	b := mustIngest(t, s, substrate.IngestInput{Body: "b", Domain: "test"})
	require.NoError(t, s.Link(a, b, substrate.RelRelatesTo))
	require.NoError(t, s.Link(a, b, substrate.RelRelatesTo))

	out, err := s.Neighbors(a, substrate.DirectionOut)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestExternalLinks_SkipsCorruptLines(t *testing.T) {
	backend := substrate.NewMemBackend()
	s, err := substrate.OpenBackend(backend)
	require.NoError(t, err)

	a := mustIngest(t, s, substrate.IngestInput{Body: "a", Domain: "test"})
	b := mustIngest(t, s, substrate.IngestInput{Body: "b", Domain: "test"})
	require.NoError(t, s.Link(a, b, substrate.RelRelatesTo))
	require.NoError(t, backend.AppendLine("external-links.jsonl", []byte("{not json")))
	require.NoError(t, s.Link(b, a, substrate.RelRelatesTo))

	links, err := s.ExternalLinks()
	require.NoError(t, err)
	assert.Len(t, links, 2, "corrupt line is skipped, valid records survive")
}
