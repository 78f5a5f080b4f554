package internal

import (
	"context"
	"image"
)

// Encoder is a pretrained vision-language model with matched image and text
// towers that embed into the same vector space. Implementations must be safe
// for concurrent use; one instance is shared by every worker in the process.
type Encoder interface {
	EncodeImage(ctx context.Context, img image.Image) ([]float32, error)
	EncodeText(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Model() string
	Close() error
}
