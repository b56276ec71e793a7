package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/vectorstore"
)

// handleStats implements the stats subcommand
func handleStats(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    renovalte stats [options]

DESCRIPTION:
    Show statistics for the configured vector collection.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Human-readable statistics
    renovalte stats

    # JSON output
    renovalte stats -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open vector store: %v", err)
	}
	defer store.Close()

	stats, err := store.Stats(context.Background(), cfg.Store.Collection)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			fmt.Fprintf(os.Stderr, "Collection %q does not exist. Run `renovalte index` first.\n", cfg.Store.Collection)
			os.Exit(1)
		}
		log.Fatalf("Failed to read stats: %v", err)
	}

	if jsonOutput {
		out := map[string]interface{}{
			"collection": cfg.Store.Collection,
			"points":     stats.PointCount,
			"dimensions": stats.Dimensions,
			"status":     stats.Status,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println("Collection Statistics")
	fmt.Println()
	fmt.Printf("Collection: %s\n", cfg.Store.Collection)
	fmt.Printf("Points:     %6d\n", stats.PointCount)
	fmt.Printf("Dimensions: %6d\n", stats.Dimensions)
	fmt.Printf("Status:     %s\n", stats.Status)
}
