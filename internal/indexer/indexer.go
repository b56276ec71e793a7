// Package indexer builds the vector collection from a loaded corpus. A build
// always replaces the whole collection: chunks are staged under a temporary
// name and promoted atomically, so readers never observe a partial index.
package indexer

import (
	"context"
	"fmt"
	"log"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/chunker"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/corpus"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/embedding"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/retrieval"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/vectorstore"
)

// Summary reports what a build produced.
type Summary struct {
	PointsIndexed int    `json:"points_indexed"`
	Collection    string `json:"collection"`
}

// Builder turns documents into an indexed collection.
type Builder struct {
	splitter   *chunker.Splitter
	embedder   *embedding.Service
	store      vectorstore.Store
	collection string
	progress   ProgressReporter
	lexical    *retrieval.LexicalIndex
}

// NewBuilder assembles a builder. Progress and lexical are optional.
func NewBuilder(splitter *chunker.Splitter, embedder *embedding.Service, store vectorstore.Store, collection string) *Builder {
	return &Builder{
		splitter:   splitter,
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// WithProgress attaches a progress reporter for interactive runs.
func (b *Builder) WithProgress(p ProgressReporter) *Builder {
	b.progress = p
	return b
}

// WithLexical additionally feeds built points into a lexical index.
func (b *Builder) WithLexical(x *retrieval.LexicalIndex) *Builder {
	b.lexical = x
	return b
}

// Build chunks and embeds all documents, then replaces the collection in one
// atomic promote. Any failure leaves the previously live collection intact.
// Point IDs are sequential from 1 in document-then-chunk order, so two builds
// over the same corpus produce identical collections.
func (b *Builder) Build(ctx context.Context, docs []corpus.Document) (Summary, error) {
	points, err := b.preparePoints(ctx, docs)
	if err != nil {
		return Summary{}, err
	}
	if len(points) == 0 {
		return Summary{}, fmt.Errorf("no chunks produced from %d documents", len(docs))
	}

	staging := b.collection + ".staging"
	if err := b.store.CreateCollection(ctx, staging, b.embedder.Dimensions()); err != nil {
		return Summary{}, fmt.Errorf("create staging collection: %w", err)
	}
	if err := b.store.Upsert(ctx, staging, points); err != nil {
		b.dropStaging(ctx, staging)
		return Summary{}, fmt.Errorf("upsert points: %w", err)
	}
	if err := b.store.Rename(ctx, staging, b.collection); err != nil {
		b.dropStaging(ctx, staging)
		return Summary{}, fmt.Errorf("promote collection: %w", err)
	}

	if b.lexical != nil {
		if err := b.lexical.Index(points); err != nil {
			return Summary{}, fmt.Errorf("build lexical index: %w", err)
		}
	}
	return Summary{PointsIndexed: len(points), Collection: b.collection}, nil
}

// preparePoints chunks and embeds everything before any store write. An
// embedding failure aborts the build and names the offending source.
func (b *Builder) preparePoints(ctx context.Context, docs []corpus.Document) ([]vectorstore.Point, error) {
	var points []vectorstore.Point
	var id uint64
	for _, doc := range docs {
		chunks := b.splitter.Split(doc.Text)
		for _, chunk := range chunks {
			id++
			points = append(points, vectorstore.Point{
				ID: id,
				Payload: vectorstore.Payload{
					Text:     chunk,
					Source:   doc.Source,
					Category: doc.Category,
					DocType:  doc.DocType,
				},
			})
		}
	}

	if b.progress != nil {
		b.progress.Start(len(points))
		defer b.progress.Finish()
	}

	batchSize := b.embedder.BatchSize()
	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		texts := make([]string, 0, end-start)
		for _, p := range points[start:end] {
			texts = append(texts, p.Payload.Text)
		}
		vecs, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks from %s: %w", points[start].Payload.Source, err)
		}
		for i := range vecs {
			points[start+i].Vector = vecs[i]
			if b.progress != nil {
				b.progress.Increment()
			}
		}
	}
	return points, nil
}

func (b *Builder) dropStaging(ctx context.Context, staging string) {
	if err := b.store.DropCollection(ctx, staging); err != nil {
		log.Printf("drop staging collection %s: %v", staging, err)
	}
}
