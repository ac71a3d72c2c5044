// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

func TestSerializeAKU_RoundTrip(t *testing.T) {
	meta := testMeta()
	meta.Created = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	meta.Source.Timestamp = meta.Created
	meta.Links = substrate.Links{
		substrate.RelDerivedFrom: {substrate.HashString("parent")},
	}
	body := "# Gravity\n\nMasses attract."

	hash := substrate.ComputeHash(meta, body)
	aku := &substrate.AKU{ID: hash, Meta: meta, Body: body}

	data, err := substrate.SerializeAKU(aku)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "---\n"))

	parsed, err := substrate.ParseAKU(data, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, parsed.ID)
	assert.Equal(t, meta.Domain, parsed.Meta.Domain)
	assert.Equal(t, meta.Type, parsed.Meta.Type)
	assert.InDelta(t, meta.Confidence, parsed.Meta.Confidence, 1e-9)
	assert.Equal(t, meta.Links, parsed.Meta.Links)
	assert.ElementsMatch(t, meta.Tags, parsed.Meta.Tags)
	assert.Equal(t, body, parsed.Body)
	assert.True(t, meta.Created.Equal(parsed.Meta.Created))

	assert.True(t, substrate.VerifyHash(hash, parsed.Meta, parsed.Body),
		"round-tripped atom must keep its content address")
}

func TestParseAKU_MissingFrontmatter(t *testing.T) {
	hash := substrate.HashString("x")

	_, err := substrate.ParseAKU([]byte("no delimiters here"), hash)
	require.Error(t, err)
	assert.True(t, suberr.HasCode(err, suberr.CodeSubstrateAtomParseFailed))
	assert.Contains(t, err.Error(), "missing frontmatter start")

	_, err = substrate.ParseAKU([]byte("---\ndomain: x\nno end"), hash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing frontmatter end")
}
