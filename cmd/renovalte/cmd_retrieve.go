package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/chunker"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/corpus"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/embedding"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/retrieval"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/vectorstore"
)

// handleRetrieve implements the retrieve subcommand
func handleRetrieve(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	topK := fs.Int("k", cfg.Retrieval.TopK, "Number of passages to return")
	category := fs.String("category", "", "Restrict the search to one category")
	categories := fs.String("categories", "", "Comma-separated categories for a fan-out query")
	perCategory := fs.Int("per-category", cfg.Retrieval.PerCategory, "Passages per category in a fan-out query")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	asContext := fs.Bool("context", false, "Print a prompt-ready context block (fan-out only)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    renovalte retrieve [options] <query>

DESCRIPTION:
    Retrieve the most relevant document passages for a query.
    With -category the search is scoped to that category; with
    -categories the query fans out and returns passages per category.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Top passages across all documents
    renovalte retrieve "insulation requirements for exterior walls"

    # Scoped to a category
    renovalte retrieve -category permits "do I need a permit"

    # One passage from each category, formatted for a prompt
    renovalte retrieve -categories regulations,permits,incentives,processes -context "heritage facade"
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintf(os.Stderr, "Error: query is required\n\n")
		fs.Usage()
		os.Exit(1)
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

	opts := retrieval.Options{
		Collection: cfg.Store.Collection,
		TopK:       cfg.Retrieval.TopK,
		Timeout:    time.Duration(cfg.Retrieval.TimeoutSecs) * time.Second,
	}
	if cfg.Retrieval.LexicalFallback {
		if lexical := buildLexicalIndex(cfg); lexical != nil {
			defer lexical.Close()
			opts.Lexical = lexical
		}
	}
	retriever := retrieval.NewRetriever(embedder, store, opts)
	ctx := context.Background()

	if *categories != "" {
		names := splitCategories(*categories)
		results, err := retriever.RetrieveMulti(ctx, query, names, *perCategory)
		if err != nil {
			log.Fatalf("Retrieval failed: %v", err)
		}
		printMultiResults(results, *jsonOutput, *asContext)
		return
	}

	passages, err := retriever.Retrieve(ctx, query, *topK, *category)
	if err != nil {
		log.Fatalf("Retrieval failed: %v", err)
	}
	printPassages(passages, *jsonOutput)
}

// buildLexicalIndex chunks the corpus into an in-memory keyword index. It is
// best effort: retrieval proceeds without a fallback when the corpus is
// unreadable.
func buildLexicalIndex(cfg *config.Config) *retrieval.LexicalIndex {
	docs, err := corpus.NewLoader(&cfg.Corpus).Load()
	if err != nil {
		log.Printf("lexical fallback disabled: %v", err)
		return nil
	}
	if len(docs) == 0 {
		log.Printf("lexical fallback disabled: no documents under %s", cfg.Corpus.Root)
		return nil
	}
	splitter, err := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		log.Printf("lexical fallback disabled: %v", err)
		return nil
	}
	lexical, err := retrieval.NewLexicalIndex()
	if err != nil {
		log.Printf("lexical fallback disabled: %v", err)
		return nil
	}
	var points []vectorstore.Point
	var id uint64
	for _, doc := range docs {
		for _, chunk := range splitter.Split(doc.Text) {
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
	if err := lexical.Index(points); err != nil {
		log.Printf("lexical fallback disabled: %v", err)
		_ = lexical.Close()
		return nil
	}
	return lexical
}

func splitCategories(value string) []string {
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func printPassages(passages []retrieval.Passage, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.MarshalIndent(passages, "", "  ")
		fmt.Println(string(data))
		return
	}
	if len(passages) == 0 {
		fmt.Println("No matching passages.")
		return
	}
	for i, p := range passages {
		fmt.Printf("%d. [%s] %s (score %.4f)\n", i+1, p.Category, p.Source, p.Score)
		fmt.Printf("   %s\n\n", snippet(p.Text, 240))
	}
}

func printMultiResults(results []retrieval.CategoryResult, jsonOutput, asContext bool) {
	if asContext {
		fmt.Println(retrieval.FormatContext(results))
		return
	}
	if jsonOutput {
		data, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(data))
		return
	}
	for _, res := range results {
		fmt.Printf("%s:\n", res.Category)
		if len(res.Passages) == 0 {
			fmt.Println("   (no matching passages)")
			continue
		}
		for _, p := range res.Passages {
			fmt.Printf("   %s (score %.4f)\n", p.Source, p.Score)
			fmt.Printf("   %s\n", snippet(p.Text, 200))
		}
		fmt.Println()
	}
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
