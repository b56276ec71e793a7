// Package corpus loads the renovation document tree for indexing. Documents
// arrive as raw text; any format extraction (PDF, DOCX) happens upstream.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/config"
)

// Document is one source document with its declared placement metadata.
// Category comes from where the file sits in the tree, never from content.
type Document struct {
	Text     string
	Source   string // path relative to the corpus root
	Category string // first directory level below the root
	DocType  string // "markdown" | "text"
}

// Loader walks a corpus root of the form root/<category>/<files...>.
type Loader struct {
	root    string
	include []string
	exclude []string
}

// NewLoader creates a loader for the configured corpus tree.
func NewLoader(cfg *config.CorpusConfig) *Loader {
	return &Loader{
		root:    cfg.Root,
		include: cfg.Include,
		exclude: cfg.Exclude,
	}
}

// Load reads all matching documents in deterministic (lexicographic) order.
// Files directly under the root have no category and are skipped.
func (l *Loader) Load() ([]Document, error) {
	if l.root == "" {
		return nil, fmt.Errorf("corpus root is required")
	}
	var docs []Document
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !l.shouldLoad(rel) {
			return nil
		}
		category, ok := categoryOf(rel)
		if !ok {
			return nil
		}
		docType, ok := docTypeOf(rel)
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		docs = append(docs, Document{
			Text:     string(data),
			Source:   rel,
			Category: category,
			DocType:  docType,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus %s: %w", l.root, err)
	}
	return docs, nil
}

// Categories lists the category directories under the root, sorted.
func (l *Loader) Categories() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root %s: %w", l.root, err)
	}
	var cats []string
	for _, e := range entries {
		if e.IsDir() {
			cats = append(cats, e.Name())
		}
	}
	return cats, nil
}

// shouldLoad applies include patterns first, then excludes. Patterns match
// the relative path and, like common ignore files, the basename alone.
func (l *Loader) shouldLoad(rel string) bool {
	base := filepath.Base(rel)
	included := len(l.include) == 0
	for _, pattern := range l.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			included = true
			break
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range l.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return false
		}
	}
	return true
}

func categoryOf(rel string) (string, bool) {
	parts := strings.SplitN(rel, "/", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}

func docTypeOf(rel string) (string, bool) {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".md", ".markdown":
		return "markdown", true
	case ".txt", ".text":
		return "text", true
	default:
		return "", false
	}
}
