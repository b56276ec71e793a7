package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

// LocalClient is a deterministic, offline bag-of-words embedder using
// feature hashing: each token is hashed to a bucket and a sign. It is a pure
// function of its input, which makes index builds reproducible without any
// external service. Relevance is cruder than a trained model, but token
// overlap still translates into cosine similarity.
type LocalClient struct {
	dims int
}

var tokenRe = regexp.MustCompile(`\p{L}+|\p{N}+`)

// NewLocalClient creates a local embedder with the given dimensionality.
func NewLocalClient(dims int) *LocalClient {
	if dims <= 0 {
		dims = 384
	}
	return &LocalClient{dims: dims}
}

// Embed hashes tokens into a fixed-width vector. Empty or token-free text
// yields the zero vector.
func (c *LocalClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, c.dims)
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(c.dims))
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (c *LocalClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

// Dimensions returns the vector width.
func (c *LocalClient) Dimensions() int { return c.dims }
