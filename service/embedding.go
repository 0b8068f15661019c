package service

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/Khalid-Galal/bidops-ai/config"
)

// OpenAIEmbedder produces embedding vectors through the OpenAI API. It
// satisfies database.Embedder.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIEmbedder(cfg config.EmbeddingConfig) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 1536
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		dimensions: dims,
	}
}

// Embed returns the vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds every text in one API call, preserving order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      e.model,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index out of range: %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the configured vector width.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }
