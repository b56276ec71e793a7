package vectorstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func seededSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.CreateCollection(ctx, "docs", 3); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if err := s.Upsert(ctx, "docs", seedPoints()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return s
}

func TestSQLiteSearch_MatchesReferenceOrder(t *testing.T) {
	s := seededSQLiteStore(t)
	hits, err := s.Search(context.Background(), "docs", unitQuery, 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	wantIDs := []uint64{1, 2, 4, 3, 5}
	if len(hits) != len(wantIDs) {
		t.Fatalf("got %d hits, want %d", len(hits), len(wantIDs))
	}
	for i, want := range wantIDs {
		if hits[i].ID != want {
			t.Errorf("hit %d: ID = %d, want %d", i, hits[i].ID, want)
		}
	}
}

func TestSQLiteSearch_CategoryFilter(t *testing.T) {
	s := seededSQLiteStore(t)
	hits, err := s.Search(context.Background(), "docs", unitQuery, 3, &Filter{Category: "permits"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2 (no padding)", len(hits))
	}
	for _, h := range hits {
		if h.Payload.Category != "permits" {
			t.Errorf("leaked category %s", h.Payload.Category)
		}
	}
}

func TestSQLiteSearch_PayloadRoundtrip(t *testing.T) {
	s := seededSQLiteStore(t)
	hits, err := s.Search(context.Background(), "docs", unitQuery, 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	got := hits[0].Payload
	want := seedPoints()[0].Payload
	if got != want {
		t.Errorf("payload roundtrip = %+v, want %+v", got, want)
	}
}

func TestSQLiteErrors(t *testing.T) {
	s := seededSQLiteStore(t)
	ctx := context.Background()

	if _, err := s.Search(ctx, "missing", unitQuery, 2, nil); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("missing collection: got %v", err)
	}
	if _, err := s.Search(ctx, "docs", []float32{1}, 2, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("wrong query dims: got %v", err)
	}
	if err := s.Upsert(ctx, "docs", []Point{{ID: 9, Vector: []float32{1, 2}}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("upsert wrong dims: got %v", err)
	}
	if err := s.Rename(ctx, "missing", "docs"); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("rename missing source: got %v", err)
	}
}

func TestSQLiteRename_ReplacesTarget(t *testing.T) {
	ctx := context.Background()
	s := seededSQLiteStore(t)

	if err := s.CreateCollection(ctx, "docs.staging", 3); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	fresh := []Point{{ID: 1, Vector: []float32{0, 0, 1}, Payload: Payload{Text: "rebuilt", Category: "permits"}}}
	if err := s.Upsert(ctx, "docs.staging", fresh); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Rename(ctx, "docs.staging", "docs"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	stats, err := s.Stats(ctx, "docs")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PointCount != 1 {
		t.Errorf("post-rename point count = %d, want 1", stats.PointCount)
	}
	if _, err := s.Stats(ctx, "docs.staging"); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("staging should be gone, got %v", err)
	}
}

func TestSQLiteDropAndStats(t *testing.T) {
	ctx := context.Background()
	s := seededSQLiteStore(t)

	stats, err := s.Stats(ctx, "docs")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PointCount != 5 || stats.Dimensions != 3 {
		t.Errorf("stats = %+v, want 5 points, 3 dims", stats)
	}

	if err := s.DropCollection(ctx, "docs"); err != nil {
		t.Fatalf("DropCollection: %v", err)
	}
	if _, err := s.Stats(ctx, "docs"); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("dropped collection stats: got %v", err)
	}
	// Dropping again is a no-op.
	if err := s.DropCollection(ctx, "docs"); err != nil {
		t.Errorf("second drop: %v", err)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.CreateCollection(ctx, "docs", 3); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if err := s.Upsert(ctx, "docs", seedPoints()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	hits, err := reopened.Search(ctx, "docs", unitQuery, 1, nil)
	if err != nil {
		t.Fatalf("Search after reopen: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != 1 {
		t.Errorf("reopened search = %+v, want ID 1", hits)
	}
}

func TestVectorBlobRoundtrip(t *testing.T) {
	vec := []float32{1.5, -0.25, 0, 3.14159}
	got, err := blobToVector(vectorToBlob(vec))
	if err != nil {
		t.Fatalf("blobToVector: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("length %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("component %d: %v, want %v", i, got[i], vec[i])
		}
	}
	if _, err := blobToVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
