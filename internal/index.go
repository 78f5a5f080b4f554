package internal

import (
	"context"
	"fmt"
	"sort"
)

var _ VectorIndex = (*Index)(nil)

// Index maps absolute image paths to their embeddings. It is built once per
// folder and never mutated after the indexer hands it out.
type Index struct {
	root      string
	model     string
	dimension int
	order     []string
	entries   map[string]Embedding
}

func NewIndex(root, model string) *Index {
	return &Index{
		root:    root,
		model:   model,
		entries: make(map[string]Embedding),
	}
}

func (idx *Index) add(path string, emb Embedding) error {
	if idx.dimension == 0 {
		idx.dimension = emb.Dimension
	}
	if emb.Dimension != idx.dimension {
		return fmt.Errorf("%w: index has %d, %s has %d", ErrDimensionMismatch, idx.dimension, path, emb.Dimension)
	}

	if _, exists := idx.entries[path]; !exists {
		idx.order = append(idx.order, path)
	}
	idx.entries[path] = emb
	return nil
}

func (idx *Index) Root() string {
	return idx.root
}

func (idx *Index) Model() string {
	return idx.model
}

func (idx *Index) Dimension() int {
	return idx.dimension
}

func (idx *Index) Len() int {
	return len(idx.order)
}

func (idx *Index) Get(path string) (Embedding, bool) {
	emb, ok := idx.entries[path]
	return emb, ok
}

// Paths returns the indexed paths in listing order.
func (idx *Index) Paths() []string {
	paths := make([]string, len(idx.order))
	copy(paths, idx.order)
	return paths
}

// Search scores every entry against query by exact dot product.
func (idx *Index) Search(ctx context.Context, query Embedding, k int) ([]SearchResult, error) {
	if idx.Len() == 0 {
		return nil, nil
	}
	if query.Dimension != idx.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, idx.dimension, query.Dimension)
	}

	results := make([]SearchResult, 0, len(idx.order))
	for _, path := range idx.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, err := idx.entries[path].Dot(query)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Path: path, Score: score})
	}

	sortByScore(results)

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func sortByScore(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
