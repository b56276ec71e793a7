package vectorstore

import (
	"context"
	"errors"
	"sort"
)

// Payload is the metadata persisted alongside every vector. It is a fixed
// record: category and source are validated at ingestion time, never pulled
// out of loose maps at query time.
type Payload struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Category string `json:"category"`
	DocType  string `json:"doc_type"`
}

// Point is the persisted unit of a collection.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a search hit. Score is cosine similarity in [-1, 1];
// stored and query vectors are unit length, so it is a plain dot product.
type ScoredPoint struct {
	ID      uint64
	Score   float64
	Payload Payload
}

// Filter restricts a search to qualifying points before ranking. An empty
// category matches everything.
type Filter struct {
	Category string
}

// Matches reports whether a payload satisfies the filter.
func (f *Filter) Matches(p Payload) bool {
	if f == nil || f.Category == "" {
		return true
	}
	return p.Category == f.Category
}

// CollectionStats describes a collection.
type CollectionStats struct {
	PointCount int    `json:"point_count"`
	Dimensions int    `json:"dimensions"`
	Status     string `json:"status"`
}

var (
	// ErrCollectionNotFound is returned when an operation references a
	// collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionMismatch is returned when a vector's width does not match
	// the collection's configured dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Store persists (vector, payload) points and answers similarity searches.
// Collections are rebuilt wholesale by the indexer and read-only otherwise.
type Store interface {
	// CreateCollection (re)creates a named collection, destroying any
	// previous data under that name.
	CreateCollection(ctx context.Context, name string, dims int) error

	// Upsert inserts or replaces points by ID.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to topK qualifying points ordered by descending
	// score, ties broken by ascending ID. Fewer than topK qualifying points
	// yield a shorter result, never padding.
	Search(ctx context.Context, collection string, vector []float32, topK int, filter *Filter) ([]ScoredPoint, error)

	// DropCollection removes a collection and its points.
	DropCollection(ctx context.Context, name string) error

	// Stats reports point count, dimensionality and health of a collection.
	Stats(ctx context.Context, name string) (CollectionStats, error)

	// Rename atomically promotes collection `from` to the name `to`,
	// replacing whatever lived under `to`. Readers see either the old or the
	// new collection, never a mix.
	Rename(ctx context.Context, from, to string) error

	Close() error
}

// dotProduct accumulates in float64 so score ordering is stable across
// backends.
func dotProduct(a []float32, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// rankPoints orders hits by descending score with ascending-ID tie-break and
// truncates to topK.
func rankPoints(hits []ScoredPoint, topK int) []ScoredPoint {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if topK >= 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
