package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
)

// OllamaClient implements Client against a local Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
	dims   int
}

// NewOllamaClient creates a client for the endpoint in the config, falling
// back to OLLAMA_HOST and then the default local address.
func NewOllamaClient(cfg *config.EmbeddingConfig) (*OllamaClient, error) {
	raw := cfg.Endpoint
	if raw == "" {
		raw = os.Getenv("OLLAMA_HOST")
	}
	if raw == "" {
		raw = "http://localhost:11434"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama endpoint %q: %w", raw, err)
	}
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = 768
	}
	return &OllamaClient{
		client: api.NewClient(u, &http.Client{Timeout: 30 * time.Second}),
		model:  model,
		dims:   dims,
	}, nil
}

// Embed generates an embedding for a single text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  c.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// EmbedBatch embeds texts one request at a time; the Ollama embeddings
// endpoint takes a single prompt.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := c.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the configured vector width.
func (c *OllamaClient) Dimensions() int { return c.dims }
