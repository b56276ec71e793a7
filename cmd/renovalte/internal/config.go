package internal

import (
	"fmt"
	"os"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
)

// LoadConfig reads the YAML config from an explicit path or the default
// location.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample prints a complete YAML configuration example.
func PrintConfigExample() {
	homeDir, _ := os.UserHomeDir()
	configPath := fmt.Sprintf("%s/.renovalte/config/renovalte.yaml", homeDir)

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

embedding:
  # Provider: "openai" | "ollama" | "local"
  provider: local
  dimensions: 384
  batch_size: 32

  # For OpenAI, use:
  # provider: openai
  # api_key: your-openai-api-key    # or set OPENAI_API_KEY
  # model: text-embedding-3-small
  # dimensions: 1536

chunking:
  chunk_size: 1000
  overlap: 200

store:
  # Backend: "memory" | "sqlite" | "qdrant"
  backend: sqlite
  collection: renovation_docs

corpus:
  # Document tree; the first directory level below root is the category.
  root: ./docs

retrieval:
  top_k: 4
  per_category: 1
  timeout_secs: 5
  lexical_fallback: true
  categories: [regulations, permits, incentives, processes]

Usage:
  1. Create the config file
  2. Place documents under <root>/<category>/
  3. Run: renovalte index
  4. Query: renovalte retrieve "your question"
`, configPath)
}
