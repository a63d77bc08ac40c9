// Package index builds, persists and searches per-document embedding indexes.
package index

import (
	"context"
	"fmt"

	"litreview/internal/models"
	"litreview/internal/vector"
)

// SearchIndex returns the k passages nearest to a query vector.
type SearchIndex interface {
	Search(ctx context.Context, query []float32, k int) ([]models.Passage, error)
	Len() int
}

// Meta records what an index was built from.
type Meta struct {
	Model     string
	Dim       int
	SourceSHA string
}

// FlatIndex scans every vector. Documents yield tens of chunks, so exact
// search is fast enough.
type FlatIndex struct {
	texts   []string
	vectors [][]float32
}

func NewFlatIndex(texts []string, vectors [][]float32) (*FlatIndex, error) {
	if len(texts) != len(vectors) {
		return nil, fmt.Errorf("flat index: %d texts for %d vectors", len(texts), len(vectors))
	}
	return &FlatIndex{texts: texts, vectors: vectors}, nil
}

func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]models.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vector.TopK(query, f.texts, f.vectors, k), nil
}

func (f *FlatIndex) Len() int { return len(f.texts) }
