package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const DefaultTrees = 10

var _ VectorIndex = (*AnnoyIndex)(nil)

// AnnoyIndex is an approximate nearest neighbour view over an Index. It is
// built once from the source index and is read-only afterwards.
type AnnoyIndex struct {
	mu        sync.RWMutex
	idx       interfaces.AnnoyIndex[float32, uint32]
	dimension int
	idToPath  map[uint32]string
}

// NewAnnoyIndex copies every embedding of src into a freshly built forest of
// numTrees trees.
func NewAnnoyIndex(ctx context.Context, src *Index, numTrees int) (*AnnoyIndex, error) {
	if src.Len() == 0 {
		return nil, ErrNoIndex
	}
	if numTrees <= 0 {
		numTrees = DefaultTrees
	}

	dimension := src.Dimension()
	idx := builder.Index[float32, uint32]().
		AngularDistance(dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	a := &AnnoyIndex{
		idx:       idx,
		dimension: dimension,
		idToPath:  make(map[uint32]string, src.Len()),
	}

	for i, path := range src.Paths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		emb, _ := src.Get(path)
		id := uint32(i)
		a.idx.AddItem(id, emb.Vector)
		a.idToPath[id] = path
	}

	a.idx.Build(numTrees, -1)
	return a, nil
}

func (a *AnnoyIndex) Search(ctx context.Context, query Embedding, k int) ([]SearchResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(query.Vector) != a.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, a.dimension, len(query.Vector))
	}

	numItems := len(a.idToPath)
	if k <= 0 || k > numItems {
		k = numItems
	}
	if k == 0 {
		return nil, nil
	}

	searchCtx := a.idx.CreateContext()
	ids, distances := a.idx.GetNnsByVector(query.Vector, k, -1, searchCtx)

	results := make([]SearchResult, 0, len(ids))
	for i, id := range ids {
		path, exists := a.idToPath[id]
		if !exists || i >= len(distances) {
			continue
		}

		results = append(results, SearchResult{
			Path:  path,
			Score: angularToCosine(distances[i]),
		})
	}

	sortByScore(results)
	return results, nil
}

func (a *AnnoyIndex) Dimension() int {
	return a.dimension
}

func (a *AnnoyIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.idToPath)
}

// Annoy's angular distance on unit vectors is sqrt(2 - 2cos).
func angularToCosine(d float32) float32 {
	return 1 - d*d/2
}
