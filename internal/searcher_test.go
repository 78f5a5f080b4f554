package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colorIndex(t *testing.T) *Index {
	t.Helper()
	fs := memFolder(t, map[string][]byte{
		"/cat.png":   solidPNG(t, red),
		"/field.png": solidPNG(t, green),
		"/ocean.png": solidPNG(t, blue),
	})
	idx, _, err := memIndexer(fs, &colorEncoder{}).Index(context.Background(), "/photos")
	require.NoError(t, err)
	return idx
}

func TestSearcherFindsMatchingImage(t *testing.T) {
	enc := &colorEncoder{}
	s := NewSearcher(enc)

	results, err := s.Search(context.Background(), "a photo of a cat", colorIndex(t), 5)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "/photos/cat.png", results[0].Path)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.EqualValues(t, 1, enc.textCalls.Load())
}

func TestSearcherThresholdIsStrict(t *testing.T) {
	idx := NewIndex("/photos", "test")
	require.NoError(t, idx.add("/photos/exact.png", mustEmbedding(t, 1, 0, 0)))
	require.NoError(t, idx.add("/photos/orthogonal.png", mustEmbedding(t, 0, 1, 0)))

	// "cat" encodes to (1,0,0): the orthogonal image scores exactly zero.
	s := NewSearcher(&colorEncoder{}, WithThreshold(0))
	results, err := s.Search(context.Background(), "cat", idx, 0)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "/photos/exact.png", results[0].Path)
}

func TestSearcherRespectsTopKAndOrder(t *testing.T) {
	idx := NewIndex("/photos", "test")
	require.NoError(t, idx.add("/photos/a.png", mustEmbedding(t, 1, 0.9, 0)))
	require.NoError(t, idx.add("/photos/b.png", mustEmbedding(t, 1, 0, 0)))
	require.NoError(t, idx.add("/photos/c.png", mustEmbedding(t, 1, 0.3, 0)))
	require.NoError(t, idx.add("/photos/d.png", mustEmbedding(t, 1, 0.6, 0)))

	s := NewSearcher(&colorEncoder{}, WithThreshold(-1))

	for k := 1; k <= 5; k++ {
		results, err := s.Search(context.Background(), "cat", idx, k)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(results), k)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
		for _, r := range results {
			assert.Greater(t, r.Score, s.Threshold())
		}
	}

	all, err := s.Search(context.Background(), "cat", idx, 0)
	require.NoError(t, err)
	assert.Equal(t, "/photos/b.png", all[0].Path)
	assert.Len(t, all, 4)
}

func TestSearcherNoMatches(t *testing.T) {
	results, err := NewSearcher(&colorEncoder{}).Search(context.Background(), "purple elephants", colorIndex(t), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearcherErrors(t *testing.T) {
	s := NewSearcher(&colorEncoder{})
	ctx := context.Background()

	_, err := s.Search(ctx, "   ", colorIndex(t), 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = s.Search(ctx, "cat", nil, 5)
	assert.ErrorIs(t, err, ErrNoIndex)

	_, err = s.Search(ctx, "nothing at all", colorIndex(t), 5)
	assert.ErrorIs(t, err, ErrZeroVector)

	failing := NewSearcher(&colorEncoder{textErr: errEncoderDown})
	_, err = failing.Search(ctx, "cat", colorIndex(t), 5)
	assert.ErrorIs(t, err, errEncoderDown)
}

func TestSearcherEmptyIndexSkipsEncoder(t *testing.T) {
	enc := &colorEncoder{}
	results, err := NewSearcher(enc).Search(context.Background(), "cat", NewIndex("/photos", "test"), 5)
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Zero(t, enc.textCalls.Load())
}

func TestSearcherOverAnnoy(t *testing.T) {
	idx, err := NewAnnoyIndex(context.Background(), colorIndex(t), DefaultTrees)
	require.NoError(t, err)

	results, err := NewSearcher(&colorEncoder{}).Search(context.Background(), "blue sky", idx, 3)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "/photos/ocean.png", results[0].Path)
}
