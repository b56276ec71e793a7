package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// QdrantStore talks to a Qdrant server over its REST API. Promotion via
// Rename is implemented with collection aliases, which Qdrant switches
// atomically; the retriever always addresses the alias name.
type QdrantStore struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu   sync.Mutex
	dims map[string]int // dimensions recorded at CreateCollection
}

// NewQdrantStore creates a client for the given server URL.
func NewQdrantStore(url, apiKey string) *QdrantStore {
	return &QdrantStore{
		baseURL: strings.TrimRight(url, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 20 * time.Second},
		dims:    make(map[string]int),
	}
}

// CreateCollection drops and recreates the named collection.
func (s *QdrantStore) CreateCollection(ctx context.Context, name string, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("create collection %s: invalid dimensions %d", name, dims)
	}
	// Delete is best-effort: a missing collection returns 404.
	_, _ = s.doRequest(ctx, http.MethodDelete, "/collections/"+name, nil)
	req := map[string]any{
		"vectors": map[string]any{
			"size":     dims,
			"distance": "Cosine",
		},
	}
	if _, err := s.doRequest(ctx, http.MethodPut, "/collections/"+name, req); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	s.mu.Lock()
	s.dims[name] = dims
	s.mu.Unlock()
	return nil
}

func (s *QdrantStore) knownDims(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dims[name]
	return d, ok
}

// Upsert inserts or replaces points by ID.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if dims, ok := s.knownDims(collection); ok {
		for _, p := range points {
			if len(p.Vector) != dims {
				return fmt.Errorf("point %d: got %d dimensions, collection has %d: %w",
					p.ID, len(p.Vector), dims, ErrDimensionMismatch)
			}
		}
	}
	payload := make([]map[string]any, 0, len(points))
	for _, p := range points {
		payload = append(payload, map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"text":     p.Payload.Text,
				"source":   p.Payload.Source,
				"category": p.Payload.Category,
				"doc_type": p.Payload.DocType,
			},
		})
	}
	req := map[string]any{"points": payload}
	if _, err := s.doRequest(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", req); err != nil {
		return fmt.Errorf("upsert into %s: %w", collection, err)
	}
	return nil
}

// Search delegates filtering and scoring to the server, then re-ranks
// locally so the ascending-ID tie-break matches the other backends.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, topK int, filter *Filter) ([]ScoredPoint, error) {
	if topK < 0 {
		topK = 0
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if filter != nil && filter.Category != "" {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key":   "category",
					"match": map[string]any{"value": filter.Category},
				},
			},
		}
	}
	data, err := s.doRequest(ctx, http.MethodPost, "/collections/"+collection+"/points/search", req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	var parsed struct {
		Result []struct {
			ID      uint64          `json:"id"`
			Score   float64         `json:"score"`
			Payload json.RawMessage `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("search %s: decode response: %w", collection, err)
	}
	hits := make([]ScoredPoint, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		var p Payload
		if len(item.Payload) > 0 {
			if err := json.Unmarshal(item.Payload, &p); err != nil {
				return nil, fmt.Errorf("search %s: decode payload of %d: %w", collection, item.ID, err)
			}
		}
		hits = append(hits, ScoredPoint{ID: item.ID, Score: item.Score, Payload: p})
	}
	return rankPoints(hits, topK), nil
}

// DropCollection removes a collection.
func (s *QdrantStore) DropCollection(ctx context.Context, name string) error {
	if _, err := s.doRequest(ctx, http.MethodDelete, "/collections/"+name, nil); err != nil {
		return fmt.Errorf("drop collection %s: %w", name, err)
	}
	s.mu.Lock()
	delete(s.dims, name)
	s.mu.Unlock()
	return nil
}

// Stats reports point count, dimensionality and server-side status.
func (s *QdrantStore) Stats(ctx context.Context, name string) (CollectionStats, error) {
	data, err := s.doRequest(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return CollectionStats{}, fmt.Errorf("stats %s: %w", name, err)
	}
	var parsed struct {
		Result struct {
			Status      string `json:"status"`
			PointsCount int    `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return CollectionStats{}, fmt.Errorf("stats %s: decode response: %w", name, err)
	}
	return CollectionStats{
		PointCount: parsed.Result.PointsCount,
		Dimensions: parsed.Result.Config.Params.Vectors.Size,
		Status:     parsed.Result.Status,
	}, nil
}

// Rename repoints the alias `to` at the collection `from` in one alias
// update, which Qdrant applies atomically, then deletes the previously
// aliased collection.
func (s *QdrantStore) Rename(ctx context.Context, from, to string) error {
	old, err := s.aliasTarget(ctx, to)
	if err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}
	actions := []map[string]any{}
	if old != "" {
		actions = append(actions, map[string]any{
			"delete_alias": map[string]any{"alias_name": to},
		})
	}
	actions = append(actions, map[string]any{
		"create_alias": map[string]any{
			"collection_name": from,
			"alias_name":      to,
		},
	})
	req := map[string]any{"actions": actions}
	if _, err := s.doRequest(ctx, http.MethodPost, "/collections/aliases", req); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}
	if old != "" && old != from {
		// Old generation is unreachable once the alias has moved.
		_, _ = s.doRequest(ctx, http.MethodDelete, "/collections/"+old, nil)
	}
	s.mu.Lock()
	if d, ok := s.dims[from]; ok {
		s.dims[to] = d
		delete(s.dims, from)
	}
	s.mu.Unlock()
	return nil
}

func (s *QdrantStore) aliasTarget(ctx context.Context, alias string) (string, error) {
	data, err := s.doRequest(ctx, http.MethodGet, "/aliases", nil)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Result struct {
			Aliases []struct {
				AliasName      string `json:"alias_name"`
				CollectionName string `json:"collection_name"`
			} `json:"aliases"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", err
	}
	for _, a := range parsed.Result.Aliases {
		if a.AliasName == alias {
			return a.CollectionName, nil
		}
	}
	return "", nil
}

func (s *QdrantStore) Close() error { return nil }

func (s *QdrantStore) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("qdrant status 404: %s: %w", strings.TrimSpace(string(data)), ErrCollectionNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
