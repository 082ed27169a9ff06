// Package embedding turns text into fixed-length vectors.
package embedding

import (
	"context"
	"fmt"

	"github.com/goldenfocus/vibelog-assistant/internal/llm"
	"github.com/goldenfocus/vibelog-assistant/pkg/metrics"
)

// MaxInputChars is the character cap applied before embedding. Longer
// inputs are truncated; callers must not assume untruncated semantics.
const MaxInputChars = 8000

// Embedder generates embedding vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Service embeds text through the OpenAI embeddings endpoint.
type Service struct {
	client *llm.OpenAIClient
	model  string
}

// NewService creates an embedding service for the given model.
func NewService(client *llm.OpenAIClient, model string) *Service {
	return &Service{client: client, model: model}
}

// Embed generates a vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for a batch of texts. Each input is
// truncated to MaxInputChars first.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = Truncate(t, MaxInputChars)
	}

	vectors, err := s.client.CreateEmbeddings(ctx, s.model, truncated)
	if err != nil {
		metrics.EmbeddingsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	metrics.EmbeddingsTotal.WithLabelValues("success").Inc()
	return vectors, nil
}

// Truncate caps text at n runes without splitting a multi-byte character.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
