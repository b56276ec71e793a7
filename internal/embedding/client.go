// Package embedding maps text to fixed-length vectors in one shared semantic
// space. Documents and queries must go through the same provider and model;
// vectors from different models are not comparable.
package embedding

import (
	"context"
	"fmt"
)

// Client is the interface implemented by embedding providers.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// EmbedError reports a failure to embed a specific input.
type EmbedError struct {
	Input string // truncated snippet of the offending text
	Err   error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embedding failed for %q: %v", e.Input, e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

func newEmbedError(text string, err error) *EmbedError {
	const maxSnippet = 48
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	return &EmbedError{Input: snippet, Err: err}
}
