// Package retrieval answers renovation-planning queries with category-scoped
// semantic search over the indexed document corpus.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/embedding"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/vectorstore"
)

// ErrUnavailable is returned when every retrieval strategy failed for
// operational reasons. Callers degrade to answering without context.
var ErrUnavailable = errors.New("retrieval unavailable")

// Passage is one retrieved chunk with its provenance.
type Passage struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// CategoryResult groups the passages retrieved for one category during a
// multi-category query.
type CategoryResult struct {
	Category string    `json:"category"`
	Passages []Passage `json:"passages"`
}

// Options tunes a Retriever. Zero values fall back to sane defaults.
type Options struct {
	// Collection is the vector collection to query.
	Collection string
	// TopK is the default passage count when a caller passes topK <= 0.
	TopK int
	// Timeout bounds each retrieval call when the caller's context has no
	// deadline of its own.
	Timeout time.Duration
	// Lexical, when set, is tried after vector search fails operationally.
	Lexical *LexicalIndex
}

// Retriever embeds queries and searches the vector store, falling back to
// the lexical index when one is configured. Operational failures (provider
// down, store unreachable) trigger the next strategy; programmer errors like
// a missing collection or mismatched dimensions surface immediately.
type Retriever struct {
	embedder   *embedding.Service
	store      vectorstore.Store
	collection string
	topK       int
	timeout    time.Duration
	lexical    *LexicalIndex
}

// NewRetriever creates a retriever over an existing collection.
func NewRetriever(embedder *embedding.Service, store vectorstore.Store, opts Options) *Retriever {
	collection := opts.Collection
	if collection == "" {
		collection = "renovation_docs"
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 4
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Retriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		topK:       topK,
		timeout:    timeout,
		lexical:    opts.Lexical,
	}
}

// Retrieve returns up to topK passages for the query, most similar first.
// A non-empty category restricts the search to documents filed under it;
// topK <= 0 falls back to the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, category string) ([]Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if topK <= 0 {
		topK = r.topK
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("query embedding failed: %v", err)
		return r.fallback(query, topK, category, err)
	}
	return r.searchVector(ctx, query, vec, topK, category)
}

// RetrieveMulti fans the query out across categories, retrieving up to
// perCategory passages from each. Results preserve the caller's category
// order; a category with no qualifying passages yields an empty (non-nil)
// passage list. Each category sees only its own documents.
func (r *Retriever) RetrieveMulti(ctx context.Context, query string, categories []string, perCategory int) ([]CategoryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}
	if perCategory <= 0 {
		return nil, fmt.Errorf("perCategory must be positive, got %d", perCategory)
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// Embed once; the same query vector serves every category.
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("query embedding failed: %v", err)
		return r.fallbackMulti(query, categories, perCategory, err)
	}

	results := make([]CategoryResult, len(categories))
	errs := make([]error, len(categories))
	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func(i int, category string) {
			defer wg.Done()
			passages, err := r.searchVector(ctx, query, vec, perCategory, category)
			if err != nil {
				errs[i] = fmt.Errorf("category %s: %w", category, err)
				return
			}
			results[i] = CategoryResult{Category: category, Passages: passages}
		}(i, category)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// searchVector runs one filtered search and converts hits to passages. Store
// outages fall through to the lexical strategy; contract violations do not.
func (r *Retriever) searchVector(ctx context.Context, query string, vec []float32, topK int, category string) ([]Passage, error) {
	var filter *vectorstore.Filter
	if category != "" {
		filter = &vectorstore.Filter{Category: category}
	}
	hits, err := r.store.Search(ctx, r.collection, vec, topK, filter)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) || errors.Is(err, vectorstore.ErrDimensionMismatch) {
			return nil, err
		}
		log.Printf("vector search failed: %v", err)
		return r.fallback(query, topK, category, err)
	}
	passages := make([]Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, Passage{
			Text:     hit.Payload.Text,
			Source:   hit.Payload.Source,
			Category: hit.Payload.Category,
			Score:    hit.Score,
		})
	}
	return passages, nil
}

// fallback tries the lexical index, then reports the pipeline unavailable.
func (r *Retriever) fallback(query string, topK int, category string, cause error) ([]Passage, error) {
	if r.lexical == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, cause)
	}
	passages, err := r.lexical.Search(query, topK, category)
	if err != nil {
		log.Printf("lexical fallback failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, cause)
	}
	return passages, nil
}

func (r *Retriever) fallbackMulti(query string, categories []string, perCategory int, cause error) ([]CategoryResult, error) {
	results := make([]CategoryResult, len(categories))
	for i, category := range categories {
		passages, err := r.fallback(query, perCategory, category, cause)
		if err != nil {
			return nil, err
		}
		results[i] = CategoryResult{Category: category, Passages: passages}
	}
	return results, nil
}

func (r *Retriever) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// FormatContext renders multi-category results as a prompt context block,
// one section per category in result order. Categories without passages are
// omitted.
func FormatContext(results []CategoryResult) string {
	var b strings.Builder
	for _, res := range results {
		if len(res.Passages) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", res.Category)
		for _, p := range res.Passages {
			fmt.Fprintf(&b, "[%s]\n%s\n\n", p.Source, strings.TrimSpace(p.Text))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
