package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/chunker"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/corpus"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/embedding"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/indexer"
)

// handleIndex implements the index subcommand
func handleIndex(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	docsRoot := fs.String("docs", "", "Override corpus root directory")
	noProgress := fs.Bool("no-progress", false, "Disable the progress bar")
	verbose := fs.Bool("v", false, "Verbose output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    renovalte index [options]

DESCRIPTION:
    Build the vector index from the document corpus.
    This will:
      1. Walk the corpus tree (category = first directory level)
      2. Split documents into overlapping chunks
      3. Embed every chunk
      4. Replace the collection atomically

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Index the configured corpus
    renovalte index

    # Index a different document tree
    renovalte index -docs ./my-docs
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if *verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	if *docsRoot != "" {
		cfg.Corpus.Root = *docsRoot
	}
	if _, err := os.Stat(cfg.Corpus.Root); os.IsNotExist(err) {
		log.Fatalf("Corpus root does not exist: %s", cfg.Corpus.Root)
	}

	docs, err := corpus.NewLoader(&cfg.Corpus).Load()
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("No documents found under %s", cfg.Corpus.Root)
	}
	fmt.Printf("Indexing %d documents from %s\n\n", len(docs), cfg.Corpus.Root)

	splitter, err := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}
	embedder, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open vector store: %v", err)
	}
	defer store.Close()

	builder := indexer.NewBuilder(splitter, embedder, store, cfg.Store.Collection)
	if !*noProgress && indexer.DefaultProgressEnabled() {
		builder = builder.WithProgress(indexer.NewBuildProgress(true))
	}

	startTime := time.Now()
	summary, err := builder.Build(context.Background(), docs)
	if err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}

	fmt.Println()
	fmt.Println("Indexing completed successfully.")
	fmt.Printf("\nDuration:   %v\n", time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("Collection: %s\n", summary.Collection)
	fmt.Printf("Documents:  %6d\n", len(docs))
	fmt.Printf("Chunks:     %6d\n", summary.PointsIndexed)
}
