package v1

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/4thel00z/pixseek/internal"
	"github.com/sirupsen/logrus"
)

// Client indexes one folder at a time and answers text queries against it.
// It is safe for concurrent use; a new Index replaces the previous one once
// it succeeds.
type Client struct {
	uc          *internal.UseCases
	encoder     internal.Encoder
	ownsEncoder bool
	topK        int

	mu      sync.RWMutex
	current *internal.IndexOutput
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	cfg := internal.DefaultConfig()
	if cc.configPath != "" {
		loaded, err := internal.LoadConfig(cc.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if cc.threshold != nil {
		cfg.Search.Threshold = *cc.threshold
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cc.log
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}

	enc := cc.encoder
	owns := false
	if enc == nil {
		created, err := internal.NewEncoder(cfg.Encoder)
		if err != nil {
			return nil, fmt.Errorf("create encoder: %w", err)
		}
		enc = created
		owns = true
	}

	indexer := internal.NewIndexer(enc,
		internal.WithIndexLogger(log),
		internal.WithExtensions(cfg.Index.Extensions),
		internal.WithRecursive(cfg.Index.Recursive),
		internal.WithWorkers(cfg.Index.Workers),
	)
	searcher := internal.NewSearcher(enc,
		internal.WithThreshold(cfg.Search.Threshold),
		internal.WithSearchLogger(log),
	)

	return &Client{
		uc: &internal.UseCases{
			Index:  internal.NewIndexUseCase(indexer, cfg.Search.Backend, cfg.Search.Trees),
			Search: internal.NewSearchUseCase(searcher),
		},
		encoder:     enc,
		ownsEncoder: owns,
		topK:        cfg.Search.TopK,
	}, nil
}

// Index encodes the images in dir and makes them the search target.
func (c *Client) Index(ctx context.Context, dir string) (IndexSummary, error) {
	out, err := c.uc.Index.Execute(ctx, internal.IndexInput{Folder: dir})
	if err != nil {
		return IndexSummary{}, fmt.Errorf("index: %w", err)
	}

	c.mu.Lock()
	c.current = out
	c.mu.Unlock()

	return IndexSummary{
		Folder:  out.Folder,
		Indexed: out.Indexed,
		Skipped: out.Skipped,
		Ignored: out.Ignored,
	}, nil
}

// Search returns up to k images above the similarity threshold, best first.
// k <= 0 uses the configured default. It fails with ErrNoIndex before the
// first successful Index.
func (c *Client) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	if current == nil {
		return nil, ErrNoIndex
	}
	if k <= 0 {
		k = c.topK
	}

	out, err := c.uc.Search.Execute(ctx, internal.SearchInput{
		Query: query,
		TopK:  k,
		Index: current.Vector,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, SearchResult{Path: r.Path, Score: r.Score})
	}
	return results, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	if c.ownsEncoder {
		return c.encoder.Close()
	}
	return nil
}
