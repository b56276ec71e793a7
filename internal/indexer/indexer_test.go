package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/chunker"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/corpus"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/embedding"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/vectorstore"
)

func testDocs() []corpus.Document {
	return []corpus.Document{
		{Text: strings.Repeat("Permit rules paragraph. ", 20), Source: "permits/rules.md", Category: "permits", DocType: "markdown"},
		{Text: "Short incentive note.", Source: "incentives/note.md", Category: "incentives", DocType: "markdown"},
	}
}

func newTestBuilder(t *testing.T, store vectorstore.Store) *Builder {
	t.Helper()
	splitter, err := chunker.New(120, 20)
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	svc := embedding.NewServiceWithClient(embedding.NewLocalClient(32), 2)
	return NewBuilder(splitter, svc, store, "renovation_docs")
}

func TestBuild_SummaryAndSearchable(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	b := newTestBuilder(t, store)

	summary, err := b.Build(ctx, testDocs())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if summary.Collection != "renovation_docs" {
		t.Errorf("collection = %s, want renovation_docs", summary.Collection)
	}
	if summary.PointsIndexed < 3 {
		t.Errorf("points indexed = %d, want several chunks", summary.PointsIndexed)
	}

	stats, err := store.Stats(ctx, "renovation_docs")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PointCount != summary.PointsIndexed {
		t.Errorf("stats count %d != summary %d", stats.PointCount, summary.PointsIndexed)
	}
	if stats.Dimensions != 32 {
		t.Errorf("dimensions = %d, want 32", stats.Dimensions)
	}

	// The staging collection must not survive a successful build.
	if _, err := store.Stats(ctx, "renovation_docs.staging"); !errors.Is(err, vectorstore.ErrCollectionNotFound) {
		t.Errorf("staging collection leaked: %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	ctx := context.Background()
	storeA := vectorstore.NewMemoryStore()
	storeB := vectorstore.NewMemoryStore()

	sumA, err := newTestBuilder(t, storeA).Build(ctx, testDocs())
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	sumB, err := newTestBuilder(t, storeB).Build(ctx, testDocs())
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if sumA.PointsIndexed != sumB.PointsIndexed {
		t.Fatalf("builds produced %d vs %d points", sumA.PointsIndexed, sumB.PointsIndexed)
	}

	svc := embedding.NewServiceWithClient(embedding.NewLocalClient(32), 2)
	query, err := svc.Embed(ctx, "permit rules")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	hitsA, err := storeA.Search(ctx, "renovation_docs", query, 5, nil)
	if err != nil {
		t.Fatalf("Search A: %v", err)
	}
	hitsB, err := storeB.Search(ctx, "renovation_docs", query, 5, nil)
	if err != nil {
		t.Fatalf("Search B: %v", err)
	}
	if len(hitsA) != len(hitsB) {
		t.Fatalf("result lengths differ: %d vs %d", len(hitsA), len(hitsB))
	}
	for i := range hitsA {
		if hitsA[i].ID != hitsB[i].ID || hitsA[i].Payload.Text != hitsB[i].Payload.Text {
			t.Errorf("hit %d differs between identical builds", i)
		}
	}
}

func TestBuild_SequentialIDsFromOne(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	summary, err := newTestBuilder(t, store).Build(ctx, testDocs())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	svc := embedding.NewServiceWithClient(embedding.NewLocalClient(32), 2)
	query, err := svc.Embed(ctx, "anything")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	hits, err := store.Search(ctx, "renovation_docs", query, summary.PointsIndexed, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	seen := map[uint64]bool{}
	for _, h := range hits {
		seen[h.ID] = true
	}
	for id := uint64(1); id <= uint64(summary.PointsIndexed); id++ {
		if !seen[id] {
			t.Errorf("missing point ID %d", id)
		}
	}
}

func TestBuild_EmbedFailureLeavesLiveCollection(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()

	if _, err := newTestBuilder(t, store).Build(ctx, testDocs()); err != nil {
		t.Fatalf("initial build: %v", err)
	}
	before, err := store.Stats(ctx, "renovation_docs")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	splitter, err := chunker.New(120, 20)
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	svc := embedding.NewServiceWithClient(&brokenClient{dims: 32}, 2)
	failing := NewBuilder(splitter, svc, store, "renovation_docs")

	_, err = failing.Build(ctx, testDocs())
	if err == nil {
		t.Fatal("expected build to fail")
	}
	if !strings.Contains(err.Error(), "permits/rules.md") {
		t.Errorf("error should name the failing source, got: %v", err)
	}

	after, err := store.Stats(ctx, "renovation_docs")
	if err != nil {
		t.Fatalf("Stats after failed build: %v", err)
	}
	if after.PointCount != before.PointCount {
		t.Errorf("live collection changed: %d -> %d points", before.PointCount, after.PointCount)
	}
}

func TestBuild_ReplacesPreviousCollection(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()

	first, err := newTestBuilder(t, store).Build(ctx, testDocs())
	if err != nil {
		t.Fatalf("first build: %v", err)
	}

	smaller := []corpus.Document{
		{Text: "One tiny document.", Source: "processes/tiny.md", Category: "processes", DocType: "markdown"},
	}
	second, err := newTestBuilder(t, store).Build(ctx, smaller)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.PointsIndexed >= first.PointsIndexed {
		t.Fatalf("expected smaller rebuild, got %d then %d", first.PointsIndexed, second.PointsIndexed)
	}

	stats, err := store.Stats(ctx, "renovation_docs")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PointCount != second.PointsIndexed {
		t.Errorf("collection holds %d points, want %d after rebuild", stats.PointCount, second.PointsIndexed)
	}
}

type brokenClient struct{ dims int }

func (b *brokenClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("provider offline")
}

func (b *brokenClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider offline")
}

func (b *brokenClient) Dimensions() int { return b.dims }
