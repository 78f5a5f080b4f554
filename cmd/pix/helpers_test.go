package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/4thel00z/pixseek/internal"
	"github.com/spf13/cobra"
)

// meanColorEncoder embeds images as their mean RGB and understands a couple
// of colour words in queries.
type meanColorEncoder struct{}

func (meanColorEncoder) EncodeImage(_ context.Context, img image.Image) ([]float32, error) {
	var r, g, b float32
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += float32(cr)
			g += float32(cg)
			b += float32(cb)
		}
	}
	return []float32{r, g, b}, nil
}

func (meanColorEncoder) EncodeText(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "cat"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "grass"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{-1, -1, -1}, nil
	}
}

func (meanColorEncoder) Dimension() int { return 3 }
func (meanColorEncoder) Model() string  { return "mean-color" }
func (meanColorEncoder) Close() error   { return nil }

// countingEncoder records how often images were encoded and whether the
// encoder was closed.
type countingEncoder struct {
	meanColorEncoder
	images atomic.Int32
	closed atomic.Int32
}

func (e *countingEncoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	e.images.Add(1)
	return e.meanColorEncoder.EncodeImage(ctx, img)
}

func (e *countingEncoder) Close() error {
	e.closed.Add(1)
	return nil
}

func countingApp() (*app, *countingEncoder) {
	enc := &countingEncoder{}
	return &app{
		newEncoder: func(internal.EncoderConfig) (internal.Encoder, error) {
			return enc, nil
		},
	}, enc
}

func testApp() *app {
	return &app{
		newEncoder: func(internal.EncoderConfig) (internal.Encoder, error) {
			return meanColorEncoder{}, nil
		},
	}
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// photoDir holds a red cat.png and a green grass.png.
func photoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cat.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "grass.png"), color.RGBA{G: 255, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	return dir
}

// execute runs the root command with an isolated config file.
func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	return executeWithConfig(t, a, configPath, args...)
}

func executeWithConfig(t *testing.T, a *app, configPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test", a)
	root.SetArgs(append(args, "--config", configPath))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))

	err := executeApp(context.Background(), a, root, func(ctx context.Context, cmd *cobra.Command) error {
		return cmd.ExecuteContext(ctx)
	})
	return out.String(), err
}

// syncBuffer is a bytes.Buffer safe to read while a command writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
