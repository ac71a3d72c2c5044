// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-dev/substrate/internal/substrate"
)

func testMeta() substrate.Meta {
	return substrate.Meta{
		Created: time.Now().UTC(),
		Source: substrate.Source{
			Type:      substrate.SourceUser,
			Timestamp: time.Now().UTC(),
		},
		Domain:     "science/physics",
		Type:       substrate.TypeFact,
		Confidence: 0.9,
		Volatility: substrate.VolatilityStable,
		Links:      substrate.Links{},
		Tags:       []string{"gravity", "newton"},
	}
}

func TestComputeHash_Deterministic(t *testing.T) {
	meta := testMeta()
	body := "Objects attract with force proportional to mass."

	h1 := substrate.ComputeHash(meta, body)
	h2 := substrate.ComputeHash(meta, body)
	assert.Equal(t, h1, h2)
	assert.True(t, substrate.IsValidHash(string(h1)))
	assert.Len(t, string(h1), 64)
}

func TestComputeHash_IgnoresTemporalFields(t *testing.T) {
	meta1 := testMeta()
	meta2 := testMeta()
	meta2.Created = meta1.Created.Add(48 * time.Hour)
	meta2.Source.Timestamp = meta1.Source.Timestamp.Add(48 * time.Hour)

	body := "same content"
	assert.Equal(t, substrate.ComputeHash(meta1, body), substrate.ComputeHash(meta2, body))
}

func TestComputeHash_TagOrderIrrelevant(t *testing.T) {
	meta1 := testMeta()
	meta1.Tags = []string{"b", "a", "c"}
	meta2 := testMeta()
	meta2.Tags = []string{"c", "a", "b"}

	assert.Equal(t, substrate.ComputeHash(meta1, "x"), substrate.ComputeHash(meta2, "x"))
}

func TestComputeHash_LinkTargetOrderIrrelevant(t *testing.T) {
	h1 := substrate.HashString("target one")
	h2 := substrate.HashString("target two")

	meta1 := testMeta()
	meta1.Links = substrate.Links{substrate.RelRelatesTo: {h1, h2}}
	meta2 := testMeta()
	meta2.Links = substrate.Links{substrate.RelRelatesTo: {h2, h1}}

	assert.Equal(t, substrate.ComputeHash(meta1, "x"), substrate.ComputeHash(meta2, "x"))
}

func TestComputeHash_BodyWhitespaceNormalized(t *testing.T) {
	meta := testMeta()

	h1 := substrate.ComputeHash(meta, "line one  \r\nline two\t\n")
	h2 := substrate.ComputeHash(meta, "line one\nline two")
	assert.Equal(t, h1, h2)

	h3 := substrate.ComputeHash(meta, "line one\nline  two")
	assert.NotEqual(t, h1, h3, "interior whitespace is content")
}

func TestComputeHash_ContentSensitive(t *testing.T) {
	meta := testMeta()
	h1 := substrate.ComputeHash(meta, "alpha")
	h2 := substrate.ComputeHash(meta, "beta")
	assert.NotEqual(t, h1, h2)

	changed := testMeta()
	changed.Confidence = 0.5
	assert.NotEqual(t, substrate.ComputeHash(meta, "alpha"), substrate.ComputeHash(changed, "alpha"))
}

func TestNormalizeBody(t *testing.T) {
	assert.Equal(t, "a\nb", substrate.NormalizeBody("a\r\nb\r\n"))
	assert.Equal(t, "a\nb", substrate.NormalizeBody("a  \nb\t"))
	assert.Equal(t, "a\n\nb", substrate.NormalizeBody("\n\na\n\nb\n\n"))
	assert.Equal(t, "", substrate.NormalizeBody("   \n  \t \n"))
}

func TestParseHash(t *testing.T) {
	valid := substrate.HashString("anything")
	h, err := substrate.ParseHash(string(valid))
	require.NoError(t, err)
	assert.Equal(t, valid, h)

	for _, bad := range []string{
		"",
		"abc",
		"ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ",
		string(valid) + "ff",
	} {
		_, err := substrate.ParseHash(bad)
		assert.Error(t, err, "hash %q should be rejected", bad)
	}
}

func TestShardPrefix(t *testing.T) {
	h := substrate.Hash("abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789")
	assert.Equal(t, "ab", h.ShardPrefix(2))
	assert.Equal(t, "abcd", h.ShardPrefix(4))
}
