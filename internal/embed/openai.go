// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package embed

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

const defaultOpenAIModel = "text-embedding-3-small"

// openAIDimensions maps known embedding models to their vector width.
var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIConfig holds OpenAI embedding provider configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, useful for testing against a mock server
}

// OpenAIProvider implements Provider using the OpenAI embeddings API.
type OpenAIProvider struct {
	client openaisdk.Client
	model  string
	dims   int
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI-backed embedding provider.
// Returns an error if the API key is missing.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, suberr.New(suberr.CodeEmbedInputInvalid, "missing openai api key")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	dims, ok := openAIDimensions[model]
	if !ok {
		return nil, suberr.New(suberr.CodeEmbedInputInvalid, "unknown embedding model",
			suberr.Field("model", model))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client: openaisdk.NewClient(opts...),
		model:  model,
		dims:   dims,
	}, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for _, text := range texts {
		if text == "" {
			return nil, suberr.New(suberr.CodeEmbedInputInvalid, "cannot embed empty text")
		}
	}

	resp, err := p.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openaisdk.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, suberr.Wrap(err, suberr.CodeEmbedProviderFailure, "requesting embeddings",
			suberr.Field("model", p.model))
	}
	if len(resp.Data) != len(texts) {
		return nil, suberr.New(suberr.CodeEmbedProviderFailure, "embedding count mismatch",
			suberr.Field("requested", len(texts)),
			suberr.Field("received", len(resp.Data)))
	}

	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for i, x := range item.Embedding {
			vec[i] = float32(x)
		}
		out[int(item.Index)] = vec
	}
	return out, nil
}

func (p *OpenAIProvider) Dimensions() int { return p.dims }

func (p *OpenAIProvider) Model() string { return p.model }
