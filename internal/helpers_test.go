package internal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	black = color.RGBA{A: 255}
)

// colorEncoder embeds an image as its mean RGB and maps a few words onto
// the matching colour axis, so "cat" finds red images.
type colorEncoder struct {
	imageCalls atomic.Int64
	textCalls  atomic.Int64

	// imageErr, when set, decides the error for an image by its mean colour.
	imageErr func(r, g, b float32) error
	textErr  error
}

var _ Encoder = (*colorEncoder)(nil)

func (e *colorEncoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	e.imageCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r, g, b, n float64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += float64(cr)
			g += float64(cg)
			b += float64(cb)
			n++
		}
	}
	if n == 0 {
		return []float32{0, 0, 0}, nil
	}

	vec := []float32{float32(r / n), float32(g / n), float32(b / n)}
	if e.imageErr != nil {
		if err := e.imageErr(vec[0], vec[1], vec[2]); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

func (e *colorEncoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	e.textCalls.Add(1)
	if e.textErr != nil {
		return nil, e.textErr
	}

	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "cat"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "grass"):
		return []float32{0, 1, 0}, nil
	case strings.Contains(text, "sky"):
		return []float32{0, 0, 1}, nil
	case strings.Contains(text, "nothing"):
		return []float32{0, 0, 0}, nil
	default:
		return []float32{-1, -1, -1}, nil
	}
}

func (e *colorEncoder) Dimension() int { return 3 }
func (e *colorEncoder) Model() string  { return "color" }
func (e *colorEncoder) Close() error   { return nil }

var errEncoderDown = errors.New("encoder unavailable")

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// memFolder returns an in-memory folder holding the given files.
func memFolder(t *testing.T, files map[string][]byte) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, data := range files {
		require.NoError(t, util.WriteFile(fs, name, data, 0644))
	}
	return fs
}

func memIndexer(fs billy.Filesystem, enc Encoder, opts ...IndexerOption) *Indexer {
	opts = append([]IndexerOption{
		WithFilesystem(func(string) billy.Filesystem { return fs }),
	}, opts...)
	return NewIndexer(enc, opts...)
}

func mustEmbedding(t *testing.T, vec ...float32) Embedding {
	t.Helper()
	emb, err := NewEmbedding(vec, "test")
	require.NoError(t, err)
	return emb
}
