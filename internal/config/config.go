package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Corpus    CorpusConfig    `yaml:"corpus,omitempty"`
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "openai" | "ollama" | "local"

	// OpenAI specific. The API key may also come from OPENAI_API_KEY.
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`

	// Dimensions must match the model; swapping either invalidates every
	// existing collection.
	Dimensions int `yaml:"dimensions"`
	BatchSize  int `yaml:"batch_size"`
}

// ChunkingConfig configures how documents are split into passages.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size,omitempty"`
	Overlap   int `yaml:"overlap,omitempty"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // "memory" | "sqlite" | "qdrant"
	Path       string `yaml:"path,omitempty"`
	URL        string `yaml:"url,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// CorpusConfig describes the document tree to index. The first directory
// level below Root names the category of every document beneath it.
type CorpusConfig struct {
	Root    string   `yaml:"root"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	TopK            int      `yaml:"top_k,omitempty"`
	PerCategory     int      `yaml:"per_category,omitempty"`
	TimeoutSecs     int      `yaml:"timeout_secs,omitempty"`
	LexicalFallback bool     `yaml:"lexical_fallback,omitempty"`
	Categories      []string `yaml:"categories,omitempty"`
}

// Load loads configuration from the default config file,
// ~/.renovalte/config/renovalte.yaml.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFromFile(filepath.Join(homeDir, ".renovalte", "config", "renovalte.yaml"))
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			homeDir, _ := os.UserHomeDir()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   filepath.Join(homeDir, ".renovalte", "config", "renovalte.yaml"),
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigNotFoundError is returned when the config file is missing.
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with the -config flag",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if err is a missing-config error.
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// ApplyDefaults fills in defaults for missing values.
func (c *Config) ApplyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.Dimensions == 0 {
		switch c.Embedding.Provider {
		case "openai":
			c.Embedding.Dimensions = 1536
		case "ollama":
			c.Embedding.Dimensions = 768
		default:
			c.Embedding.Dimensions = 384
		}
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.Provider == "openai" && c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider == "ollama" && c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}

	if c.Chunking.ChunkSize == 0 {
		c.Chunking.ChunkSize = 1000
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.Store.Path = filepath.Join(homeDir, ".renovalte", "data", "vectors.db")
		}
	}
	if c.Store.Backend == "qdrant" && c.Store.URL == "" {
		c.Store.URL = "http://localhost:6333"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "renovation_docs"
	}

	if len(c.Corpus.Include) == 0 {
		c.Corpus.Include = []string{"**/*.md", "**/*.txt"}
	}

	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 4
	}
	if c.Retrieval.PerCategory == 0 {
		c.Retrieval.PerCategory = 1
	}
	if c.Retrieval.TimeoutSecs == 0 {
		c.Retrieval.TimeoutSecs = 5
	}
	if len(c.Retrieval.Categories) == 0 {
		c.Retrieval.Categories = []string{"regulations", "permits", "incentives", "processes"}
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("openai provider requires api_key or OPENAI_API_KEY")
		}
	case "ollama", "local":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got: %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got: %d", c.Embedding.BatchSize)
	}

	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got: %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("overlap %d must be non-negative and smaller than chunk_size %d",
			c.Chunking.Overlap, c.Chunking.ChunkSize)
	}

	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("sqlite backend requires store.path")
		}
	case "qdrant":
		if c.Store.URL == "" {
			return fmt.Errorf("qdrant backend requires store.url")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}

	for _, cat := range c.Retrieval.Categories {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("retrieval.categories must not contain empty names")
		}
	}
	return nil
}

// OpenAIKey returns the configured key, falling back to the environment.
func (c *EmbeddingConfig) OpenAIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

const defaultConfigTemplate = `# RenovAlte retrieval configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.renovalte/config/renovalte.yaml

embedding:
  # Provider: "openai", "ollama" or "local"
  provider: local
  dimensions: 384
  batch_size: 32

  # OpenAI configuration (alternative)
  # provider: openai
  # api_key: your-openai-api-key   # or set OPENAI_API_KEY
  # model: text-embedding-3-small
  # dimensions: 1536

chunking:
  chunk_size: 1000
  overlap: 200

store:
  # Backend: "memory", "sqlite" or "qdrant"
  backend: sqlite
  collection: renovation_docs

corpus:
  # Directory tree of planning documents; the first directory level below
  # root is the category (regulations/, permits/, incentives/, processes/).
  root: ./docs

retrieval:
  top_k: 4
  per_category: 1
  timeout_secs: 5
  lexical_fallback: true
  categories: [regulations, permits, incentives, processes]
`

// WriteDefaultTemplate creates a default configuration file if it does not
// exist. It returns true if a file was created.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}
	return true, nil
}
