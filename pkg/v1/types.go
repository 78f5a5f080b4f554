package v1

import "github.com/4thel00z/pixseek/internal"

// Encoder embeds images and text queries into the same vector space. Pass
// one to WithEncoder to run the client against a custom model.
type Encoder = internal.Encoder

var (
	ErrNoIndex    = internal.ErrNoIndex
	ErrEmptyQuery = internal.ErrEmptyQuery
	ErrNoFolder   = internal.ErrNoFolder
)

// IndexSummary describes a finished indexing run.
type IndexSummary struct {
	Folder  string `json:"folder"`
	Indexed int    `json:"indexed"`
	Skipped int    `json:"skipped"`
	Ignored int    `json:"ignored"`
}

// SearchResult is one ranked image.
type SearchResult struct {
	Path  string  `json:"path"`
	Score float32 `json:"score"`
}
