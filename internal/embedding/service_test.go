package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
)

func TestLocalClient_Deterministic(t *testing.T) {
	ctx := context.Background()
	c := NewLocalClient(64)

	a, err := c.Embed(ctx, "building permit application process")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := c.Embed(ctx, "building permit application process")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLocalClient_EmptyTextIsValid(t *testing.T) {
	c := NewLocalClient(16)
	vec, err := c.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed(\"\") returned error: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Errorf("empty text should embed to the zero vector, got %v at %d", v, i)
		}
	}
}

func TestService_Normalization(t *testing.T) {
	svc := NewServiceWithClient(NewLocalClient(64), 8)
	vec, err := svc.Embed(context.Background(), "heritage building permit exceptions apply")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("squared norm = %v, want 1.0", sum)
	}
}

func TestService_BatchMatchesSingle(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceWithClient(NewLocalClient(64), 2) // force multiple batches

	texts := []string{
		"energy efficiency incentives",
		"permit review timelines",
		"heritage protection rules",
		"",
		"contractor selection process",
	}
	batch, err := svc.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("EmbedBatch returned %d vectors, want %d", len(batch), len(texts))
	}
	for i, text := range texts {
		single, err := svc.Embed(ctx, text)
		if err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}
		for j := range single {
			if single[j] != batch[i][j] {
				t.Errorf("text %d: batch and single embeddings differ at %d", i, j)
				break
			}
		}
	}
}

func TestService_WrapsProviderFailure(t *testing.T) {
	svc := NewServiceWithClient(&failingClient{dims: 8}, 4)
	_, err := svc.Embed(context.Background(), "some long renovation planning question about permits")
	var embedErr *EmbedError
	if !errors.As(err, &embedErr) {
		t.Fatalf("want *EmbedError, got %v", err)
	}
	if embedErr.Input == "" {
		t.Error("EmbedError should carry an input snippet")
	}
}

func TestNewService_UnknownProvider(t *testing.T) {
	_, err := NewService(&config.EmbeddingConfig{Provider: "word2vec"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	v := make([]float32, 8)
	Normalize(v)
	for i, x := range v {
		if x != 0 {
			t.Errorf("zero vector changed at %d: %v", i, x)
		}
	}
}

type failingClient struct{ dims int }

func (f *failingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("backend down")
}

func (f *failingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("backend down")
}

func (f *failingClient) Dimensions() int { return f.dims }
