package internal

import (
	"context"
	"fmt"
	"math"
)

// normTolerance bounds how far a stored vector's norm may drift from 1.
const normTolerance = 1e-5

type Embedding struct {
	Vector    []float32
	Dimension int
	Model     string
}

// NewEmbedding normalizes vec to unit length. It fails on an empty or zero vector.
func NewEmbedding(vec []float32, model string) (Embedding, error) {
	if len(vec) == 0 {
		return Embedding{}, fmt.Errorf("empty vector: %w", ErrZeroVector)
	}

	normalized, ok := l2Normalize(vec)
	if !ok {
		return Embedding{}, ErrZeroVector
	}

	return Embedding{
		Vector:    normalized,
		Dimension: len(normalized),
		Model:     model,
	}, nil
}

// Dot returns the dot product of two embeddings, which is their cosine
// similarity when both are unit length.
func (e Embedding) Dot(other Embedding) (float32, error) {
	if len(e.Vector) != len(other.Vector) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(e.Vector), len(other.Vector))
	}

	var sum float64
	for i, v := range e.Vector {
		sum += float64(v) * float64(other.Vector[i])
	}
	return float32(sum), nil
}

func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e.Vector {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func (e Embedding) IsUnit() bool {
	return math.Abs(e.Norm()-1) <= normTolerance
}

type SearchResult struct {
	Path  string
	Score float32 // cosine similarity, higher is better
}

// VectorIndex returns the k nearest stored embeddings to a query, best first.
// k <= 0 asks for every candidate.
type VectorIndex interface {
	Search(ctx context.Context, query Embedding, k int) ([]SearchResult, error)
	Dimension() int
	Len() int
}

func l2Normalize(vec []float32) ([]float32, bool) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, false
	}

	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = float32(float64(v) / norm)
	}

	return result, true
}
