package repository

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// indexEntry is the shape of a document in the full-text index.
type indexEntry struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// Index is the full-text index kept in step with document writes.
type Index struct {
	idx bleve.Index
}

// OpenIndex opens (or creates) a bleve index at path. An empty path opens an
// in-memory index, which is what tests and the zero-config mode use.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating in-memory search index: %w", err)
		}
		return &Index{idx: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index %q: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// IndexDocument adds or replaces a document in the index.
func (i *Index) IndexDocument(doc *Document, content string) error {
	return i.idx.Index(doc.ID, indexEntry{
		Name:        doc.Name,
		Title:       doc.Title,
		Description: doc.Description,
		Content:     content,
	})
}

// Remove drops a document from the index.
func (i *Index) Remove(docID string) error {
	return i.idx.Delete(docID)
}

// Query returns the ids of documents matching term, ordered by relevance and
// bounded by limit/offset.
func (i *Index) Query(term string, limit, offset int) ([]string, error) {
	var q query.Query
	if term == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		q = bleve.NewMatchQuery(term)
	}
	req := bleve.NewSearchRequestOptions(q, limit, offset, false)
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.idx.Close()
}
