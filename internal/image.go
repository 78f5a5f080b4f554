package internal

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif"}

type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// HasExtension reports whether name ends in one of exts, ignoring case.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// DecodeImage reads a full image and converts it to RGBA so palette, gray and
// CMYK sources all reach the encoder in the same colour model.
func DecodeImage(r io.Reader) (image.Image, ImageInfo, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, ImageInfo{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ImageInfo{}, fmt.Errorf("decode image: empty bounds")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return rgba, ImageInfo{
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Downscale shrinks img so its longest side is at most maxSide. Images that
// already fit, or a non-positive maxSide, are returned unchanged.
func Downscale(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
