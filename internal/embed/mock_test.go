// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package embed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-dev/substrate/internal/embed"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

func TestMockProvider_Deterministic(t *testing.T) {
	ctx := context.Background()
	p := embed.NewMockProvider(64)

	v1, err := p.Embed(ctx, "the same text")
	require.NoError(t, err)
	v2, err := p.Embed(ctx, "the same text")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 64)

	other, err := p.Embed(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, v1, other)
}

func TestMockProvider_UnitVectors(t *testing.T) {
	ctx := context.Background()
	p := embed.NewMockProvider(128)

	vec, err := p.Embed(ctx, "normalize me")
	require.NoError(t, err)

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestMockProvider_SelfSimilarity(t *testing.T) {
	ctx := context.Background()
	p := embed.NewMockProvider(384)

	a, err := p.Embed(ctx, "identical input")
	require.NoError(t, err)
	b, err := p.Embed(ctx, "identical input")
	require.NoError(t, err)

	var cos float64
	for i := range a {
		cos += float64(a[i]) * float64(b[i])
	}
	assert.Greater(t, cos, 0.99)
}

func TestMockProvider_RejectsEmptyText(t *testing.T) {
	ctx := context.Background()
	p := embed.NewMockProvider(16)

	_, err := p.Embed(ctx, "")
	require.Error(t, err)
	assert.True(t, suberr.IsInvalidInput(err))

	_, err = p.EmbedBatch(ctx, []string{"ok", ""})
	assert.Error(t, err)
}

func TestMockProvider_Batch(t *testing.T) {
	ctx := context.Background()
	p := embed.NewMockProvider(32)

	vecs, err := p.EmbedBatch(ctx, []string{"one", "two", "one"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vecs[0], vecs[2])
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestNewOpenAIProvider_Validation(t *testing.T) {
	_, err := embed.NewOpenAIProvider(embed.OpenAIConfig{})
	assert.Error(t, err)

	_, err = embed.NewOpenAIProvider(embed.OpenAIConfig{APIKey: "sk-test", Model: "made-up-model"})
	assert.Error(t, err)

	p, err := embed.NewOpenAIProvider(embed.OpenAIConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 1536, p.Dimensions())
	assert.Equal(t, "text-embedding-3-small", p.Model())
}
