package retrieval

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aniket04-cod/RenovAlte-sub001/internal/vectorstore"
)

// LexicalIndex is an in-memory bleve index over the same chunks the vector
// store holds. It backs the keyword fallback strategy when the embedding
// backend is unreachable; scores are bleve's BM25-style scores, not cosine
// similarities.
type LexicalIndex struct {
	index bleve.Index
}

type lexicalDoc struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Category string `json:"category"`
}

// NewLexicalIndex creates an empty in-memory index.
func NewLexicalIndex() (*LexicalIndex, error) {
	index, err := bleve.NewMemOnly(buildLexicalMapping())
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}
	return &LexicalIndex{index: index}, nil
}

func buildLexicalMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "text"

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	textField.Index = true
	docMapping.AddFieldMappingsAt("text", textField)

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Store = true
	sourceField.Index = false
	docMapping.AddFieldMappingsAt("source", sourceField)

	categoryField := bleve.NewTextFieldMapping()
	categoryField.Store = true
	categoryField.Index = true
	categoryField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("category", categoryField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Index adds points in one batch, replacing documents with the same ID.
func (x *LexicalIndex) Index(points []vectorstore.Point) error {
	batch := x.index.NewBatch()
	for _, p := range points {
		doc := lexicalDoc{
			Text:     p.Payload.Text,
			Source:   p.Payload.Source,
			Category: p.Payload.Category,
		}
		if err := batch.Index(strconv.FormatUint(p.ID, 10), doc); err != nil {
			return fmt.Errorf("index point %d: %w", p.ID, err)
		}
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("commit lexical batch: %w", err)
	}
	return nil
}

// Search runs a keyword match over the text field, restricted to one
// category when given.
func (x *LexicalIndex) Search(query string, topK int, category string) ([]Passage, error) {
	match := bleve.NewMatchQuery(query)
	match.SetField("text")

	var req *bleve.SearchRequest
	if category != "" {
		term := bleve.NewTermQuery(category)
		term.SetField("category")
		req = bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(match, term), topK, 0, false)
	} else {
		req = bleve.NewSearchRequestOptions(match, topK, 0, false)
	}
	req.Fields = []string{"text", "source", "category"}

	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	passages := make([]Passage, 0, len(res.Hits))
	for _, hit := range res.Hits {
		passages = append(passages, Passage{
			Text:     fieldString(hit.Fields, "text"),
			Source:   fieldString(hit.Fields, "source"),
			Category: fieldString(hit.Fields, "category"),
			Score:    hit.Score,
		})
	}
	return passages, nil
}

// Close releases the index.
func (x *LexicalIndex) Close() error { return x.index.Close() }

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
