package internal

import (
	"context"
	"fmt"
	"strings"
)

// Use case input/output DTOs

type IndexInput struct {
	Folder string
}

type IndexOutput struct {
	Folder  string
	Indexed int
	Skipped int
	Ignored int

	Index  *Index
	Vector VectorIndex
}

type SearchInput struct {
	Query string
	TopK  int
	Index VectorIndex
}

type SearchOutput struct {
	Query   string
	Results []SearchResult
}

// Use cases

type UseCases struct {
	Index  *IndexUseCase
	Search *SearchUseCase
}

type IndexUseCase struct {
	indexer *Indexer
	backend string
	trees   int
}

func NewIndexUseCase(indexer *Indexer, backend string, trees int) *IndexUseCase {
	if backend == "" {
		backend = SearchBackendFlat
	}
	return &IndexUseCase{
		indexer: indexer,
		backend: backend,
		trees:   trees,
	}
}

func (uc *IndexUseCase) Execute(ctx context.Context, input IndexInput) (*IndexOutput, error) {
	if strings.TrimSpace(input.Folder) == "" {
		return nil, ErrNoFolder
	}

	idx, stats, err := uc.indexer.Index(ctx, input.Folder)
	if err != nil {
		return nil, err
	}

	vindex, err := uc.vectorIndex(ctx, idx)
	if err != nil {
		return nil, err
	}

	return &IndexOutput{
		Folder:  idx.Root(),
		Indexed: stats.Indexed,
		Skipped: stats.Skipped,
		Ignored: stats.Ignored,
		Index:   idx,
		Vector:  vindex,
	}, nil
}

func (uc *IndexUseCase) vectorIndex(ctx context.Context, idx *Index) (VectorIndex, error) {
	switch uc.backend {
	case SearchBackendFlat:
		return idx, nil
	case SearchBackendAnnoy:
		// Nothing to build a forest from; the flat index answers with no results.
		if idx.Len() == 0 {
			return idx, nil
		}
		annoy, err := NewAnnoyIndex(ctx, idx, uc.trees)
		if err != nil {
			return nil, fmt.Errorf("build annoy index: %w", err)
		}
		return annoy, nil
	default:
		return nil, fmt.Errorf("unsupported search backend: %q", uc.backend)
	}
}

type SearchUseCase struct {
	searcher *Searcher
}

func NewSearchUseCase(searcher *Searcher) *SearchUseCase {
	return &SearchUseCase{searcher: searcher}
}

func (uc *SearchUseCase) Execute(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	results, err := uc.searcher.Search(ctx, input.Query, input.Index, input.TopK)
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []SearchResult{}
	}

	return &SearchOutput{
		Query:   strings.TrimSpace(input.Query),
		Results: results,
	}, nil
}
