package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultThreshold float32 = 0.2
	DefaultTopK              = 10
)

// Searcher ranks indexed images against a text query encoded by the same
// model's text tower.
type Searcher struct {
	encoder   Encoder
	threshold float32
	log       logrus.FieldLogger
}

type SearcherOption func(*Searcher)

// WithThreshold sets the similarity floor; results must score strictly above it.
func WithThreshold(threshold float32) SearcherOption {
	return func(s *Searcher) {
		s.threshold = threshold
	}
}

func WithSearchLogger(log logrus.FieldLogger) SearcherOption {
	return func(s *Searcher) {
		s.log = log
	}
}

func NewSearcher(encoder Encoder, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		encoder:   encoder,
		threshold: DefaultThreshold,
		log:       discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Searcher) Threshold() float32 {
	return s.threshold
}

// Search returns at most topK results scoring above the threshold, best
// first. topK <= 0 means no cap. An index with no entries yields no results.
func (s *Searcher) Search(ctx context.Context, query string, index VectorIndex, topK int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if index == nil {
		return nil, ErrNoIndex
	}
	if index.Len() == 0 {
		return nil, nil
	}

	vec, err := s.encoder.EncodeText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	emb, err := NewEmbedding(vec, s.encoder.Model())
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	candidates, err := index.Search(ctx, emb, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > s.threshold {
			results = append(results, c)
		}
	}

	sortByScore(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	s.log.WithFields(logrus.Fields{
		"query":      query,
		"candidates": len(candidates),
		"matches":    len(results),
	}).Debug("searched index")

	return results, nil
}
