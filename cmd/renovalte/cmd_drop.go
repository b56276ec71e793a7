package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
)

// handleDrop implements the drop subcommand
func handleDrop(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    renovalte drop [options]

DESCRIPTION:
    Drop the configured vector collection. The document corpus on disk is
    untouched; rerun `+"`renovalte index`"+` to rebuild.

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if !*yes {
		fmt.Printf("Drop collection %q? [y/N] ", cfg.Store.Collection)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open vector store: %v", err)
	}
	defer store.Close()

	if err := store.DropCollection(context.Background(), cfg.Store.Collection); err != nil {
		log.Fatalf("Failed to drop collection: %v", err)
	}
	fmt.Printf("Dropped collection %q.\n", cfg.Store.Collection)
}
