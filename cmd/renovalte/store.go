package main

import (
	"fmt"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
	"github.com/Aniket04-cod/RenovAlte-sub001/internal/vectorstore"
)

// openStore opens the configured vector store backend.
func openStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return vectorstore.NewMemoryStore(), nil
	case "sqlite":
		return vectorstore.NewSQLiteStore(cfg.Store.Path)
	case "qdrant":
		return vectorstore.NewQdrantStore(cfg.Store.URL, cfg.Store.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
