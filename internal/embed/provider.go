// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

// Package embed defines the embedding provider boundary. The store and
// indexes never generate embeddings themselves; they consume vectors
// produced by a Provider.
package embed

import "context"

// Provider turns text into embedding vectors.
type Provider interface {
	// Embed returns one embedding for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the provider's output vector width.
	Dimensions() int

	// Model names the underlying embedding model.
	Model() string
}
