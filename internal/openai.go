package internal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

const (
	DefaultEncoderURL   = "http://localhost:7997"
	DefaultEncoderModel = "openai/clip-vit-base-patch32"
	DefaultDimension    = 512
	DefaultImageSize    = 336
)

var _ Encoder = (*OpenAIEncoder)(nil)

// OpenAIEncoder talks to a CLIP model served behind an OpenAI-compatible
// /embeddings endpoint that accepts a "modality" field (Infinity, Jina and
// LocalAI all do). Images travel as PNG data URIs.
type OpenAIEncoder struct {
	client    openai.Client
	model     string
	dimension int
	imageSize int
	limiter   *rate.Limiter
}

type openAIEncoderOptions struct {
	apiKey    string
	dimension int
	imageSize int
	rateLimit float64
	timeout   time.Duration
	client    *http.Client
}

type OpenAIEncoderOption func(*openAIEncoderOptions)

func WithAPIKey(key string) OpenAIEncoderOption {
	return func(o *openAIEncoderOptions) {
		o.apiKey = key
	}
}

// WithDimension pins the expected vector size; responses of any other size
// are treated as an encoder failure. Zero accepts whatever the model returns.
func WithDimension(dimension int) OpenAIEncoderOption {
	return func(o *openAIEncoderOptions) {
		o.dimension = dimension
	}
}

// WithImageSize caps the longest side of uploaded images.
func WithImageSize(size int) OpenAIEncoderOption {
	return func(o *openAIEncoderOptions) {
		o.imageSize = size
	}
}

// WithRateLimit bounds requests per second; zero disables limiting.
func WithRateLimit(perSecond float64) OpenAIEncoderOption {
	return func(o *openAIEncoderOptions) {
		o.rateLimit = perSecond
	}
}

func WithTimeout(timeout time.Duration) OpenAIEncoderOption {
	return func(o *openAIEncoderOptions) {
		o.timeout = timeout
	}
}

func WithHTTPClient(client *http.Client) OpenAIEncoderOption {
	return func(o *openAIEncoderOptions) {
		o.client = client
	}
}

func NewOpenAIEncoder(baseURL, model string, opts ...OpenAIEncoderOption) *OpenAIEncoder {
	options := openAIEncoderOptions{
		imageSize: DefaultImageSize,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if baseURL == "" {
		baseURL = DefaultEncoderURL
	}
	if model == "" {
		model = DefaultEncoderModel
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(options.apiKey),
		option.WithMaxRetries(0),
	}
	if options.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(options.timeout))
	}
	if options.client != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(options.client))
	}

	var limiter *rate.Limiter
	if options.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.rateLimit), 1)
	}

	return &OpenAIEncoder{
		client:    openai.NewClient(reqOpts...),
		model:     model,
		dimension: options.dimension,
		imageSize: options.imageSize,
		limiter:   limiter,
	}
}

func (e *OpenAIEncoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	data, err := encodePNG(Downscale(img, e.imageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageRejected, err)
	}

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	vec, err := e.embed(ctx, uri, "image")
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && isRejection(apiErr.StatusCode) {
			return nil, fmt.Errorf("%w: %v", ErrImageRejected, err)
		}
		return nil, err
	}
	return vec, nil
}

func (e *OpenAIEncoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "text")
}

func (e *OpenAIEncoder) embed(ctx context.Context, input, modality string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{input},
		},
	}

	resp, err := e.client.Embeddings.New(ctx, params, option.WithJSONSet("modality", modality))
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", modality, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed %s: no embeddings returned", modality)
	}

	raw := resp.Data[0].Embedding
	if e.dimension > 0 && len(raw) != e.dimension {
		return nil, fmt.Errorf("embed %s: %w: model returned %d, expected %d", modality, ErrDimensionMismatch, len(raw), e.dimension)
	}

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (e *OpenAIEncoder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEncoder) Model() string {
	return e.model
}

func (e *OpenAIEncoder) Close() error {
	return nil
}

func isRejection(status int) bool {
	switch status {
	case http.StatusBadRequest,
		http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}
