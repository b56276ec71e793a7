package vectorstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an exact brute-force in-process store. It is the reference
// implementation of the ranking contract and the default for tests; the
// sqlite and qdrant backends must agree with it on top-k set and order.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dims   int
	points map[uint64]Point
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

// CreateCollection (re)creates a collection, discarding prior contents.
func (s *MemoryStore) CreateCollection(ctx context.Context, name string, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("create collection %s: invalid dimensions %d", name, dims)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = &memCollection{dims: dims, points: make(map[uint64]Point)}
	return nil
}

// Upsert inserts or replaces points by ID.
func (s *MemoryStore) Upsert(ctx context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("upsert into %s: %w", collection, ErrCollectionNotFound)
	}
	for _, p := range points {
		if len(p.Vector) != c.dims {
			return fmt.Errorf("point %d: got %d dimensions, collection has %d: %w",
				p.ID, len(p.Vector), c.dims, ErrDimensionMismatch)
		}
	}
	for _, p := range points {
		c.points[p.ID] = p
	}
	return nil
}

// Search scans all qualifying points and ranks them by dot product.
func (s *MemoryStore) Search(ctx context.Context, collection string, vector []float32, topK int, filter *Filter) ([]ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("search %s: %w", collection, ErrCollectionNotFound)
	}
	if len(vector) != c.dims {
		return nil, fmt.Errorf("query vector has %d dimensions, collection has %d: %w",
			len(vector), c.dims, ErrDimensionMismatch)
	}
	hits := make([]ScoredPoint, 0, len(c.points))
	for _, p := range c.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		hits = append(hits, ScoredPoint{
			ID:      p.ID,
			Score:   dotProduct(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	return rankPoints(hits, topK), nil
}

// DropCollection removes a collection. Dropping an absent collection is a
// no-op.
func (s *MemoryStore) DropCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Stats reports point count and dimensionality.
func (s *MemoryStore) Stats(ctx context.Context, name string) (CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return CollectionStats{}, fmt.Errorf("stats %s: %w", name, ErrCollectionNotFound)
	}
	return CollectionStats{
		PointCount: len(c.points),
		Dimensions: c.dims,
		Status:     "green",
	}, nil
}

// Rename promotes `from` to `to` under the write lock, so readers observe
// the swap atomically.
func (s *MemoryStore) Rename(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[from]
	if !ok {
		return fmt.Errorf("rename %s: %w", from, ErrCollectionNotFound)
	}
	delete(s.collections, from)
	s.collections[to] = c
	return nil
}

func (s *MemoryStore) Close() error { return nil }
