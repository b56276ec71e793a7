package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
)

// Service wraps a provider client with batching and unit normalization.
// Every vector leaving the service has L2 norm 1 (or is the zero vector for
// content the provider maps to zero), so cosine similarity downstream is a
// plain dot product.
type Service struct {
	client    Client
	batchSize int
}

// NewService creates a service for the configured provider.
func NewService(cfg *config.EmbeddingConfig) (*Service, error) {
	var client Client
	var err error

	switch cfg.Provider {
	case "openai":
		client, err = NewOpenAIClient(cfg)
	case "ollama":
		client, err = NewOllamaClient(cfg)
	case "local":
		client = NewLocalClient(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return NewServiceWithClient(client, cfg.BatchSize), nil
}

// NewServiceWithClient wraps an explicit client; used by callers that inject
// their own provider.
func NewServiceWithClient(client Client, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Service{client: client, batchSize: batchSize}
}

// Embed returns the unit-normalized embedding of one text. Empty text is
// valid input: the provider's vector is passed through, zero or not.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.client.Embed(ctx, text)
	if err != nil {
		return nil, newEmbedError(text, err)
	}
	if err := s.checkDims(vec); err != nil {
		return nil, newEmbedError(text, err)
	}
	Normalize(vec)
	return vec, nil
}

// EmbedBatch embeds texts in provider-sized batches, preserving order.
// Batching is a throughput optimization only: the result for each text is
// numerically identical to embedding it alone.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		vecs, err := s.client.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, newEmbedError(batch[0], err)
		}
		if len(vecs) != len(batch) {
			return nil, newEmbedError(batch[0],
				fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vecs)))
		}
		for i, vec := range vecs {
			if err := s.checkDims(vec); err != nil {
				return nil, newEmbedError(batch[i], err)
			}
			Normalize(vec)
			results = append(results, vec)
		}
	}
	return results, nil
}

// Dimensions returns the width of produced vectors.
func (s *Service) Dimensions() int { return s.client.Dimensions() }

// BatchSize returns the provider batch size, for callers that track
// progress per batch.
func (s *Service) BatchSize() int { return s.batchSize }

func (s *Service) checkDims(vec []float32) error {
	if want := s.client.Dimensions(); len(vec) != want {
		return fmt.Errorf("provider returned %d dimensions, want %d", len(vec), want)
	}
	return nil
}

// Normalize scales v to unit L2 norm in place. The zero vector is left
// unchanged.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
