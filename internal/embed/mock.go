// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package embed

import (
	"context"
	"math"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// MockProvider produces deterministic pseudo-embeddings seeded from
// the input text. The same text always yields the same unit vector, so
// self-similarity is exactly 1, which is all similarity-pipeline tests
// need. No network, no model.
type MockProvider struct {
	dims int
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a mock provider emitting vectors of the
// given width.
func NewMockProvider(dims int) *MockProvider {
	if dims <= 0 {
		dims = 384
	}
	return &MockProvider{dims: dims}
}

func (m *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, suberr.New(suberr.CodeEmbedInputInvalid, "cannot embed empty text")
	}

	// djb2-style text hash, then an LCG stream, truncated to int32
	// at each step for portability across implementations.
	var seed int32
	for _, r := range text {
		seed = seed*31 + int32(r)
	}

	state := seed & 0x7fffffff
	vec := make([]float32, m.dims)
	for i := range vec {
		state = (state*1103515245 + 12345) & 0x7fffffff
		vec[i] = float32(float64(state)/float64(0x7fffffff))*2 - 1
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * scale)
		}
	}
	return vec, nil
}

func (m *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *MockProvider) Dimensions() int { return m.dims }

func (m *MockProvider) Model() string { return "mock" }
