package internal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 4

// fsRoot is where every folder filesystem is rooted, for osfs and memfs alike.
const fsRoot = "/"

type IndexStats struct {
	Candidates int
	Indexed    int
	Skipped    int
	Ignored    int
}

// Indexer turns a folder of images into an Index through the encoder's image tower.
type Indexer struct {
	encoder    Encoder
	log        logrus.FieldLogger
	fsFor      func(root string) billy.Filesystem
	extensions []string
	recursive  bool
	workers    int
}

type IndexerOption func(*Indexer)

func WithIndexLogger(log logrus.FieldLogger) IndexerOption {
	return func(ix *Indexer) {
		ix.log = log
	}
}

// WithFilesystem replaces the OS filesystem; fsFor receives the absolute folder path.
func WithFilesystem(fsFor func(root string) billy.Filesystem) IndexerOption {
	return func(ix *Indexer) {
		ix.fsFor = fsFor
	}
}

func WithExtensions(exts []string) IndexerOption {
	return func(ix *Indexer) {
		if len(exts) > 0 {
			ix.extensions = exts
		}
	}
}

func WithRecursive(recursive bool) IndexerOption {
	return func(ix *Indexer) {
		ix.recursive = recursive
	}
}

func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

func NewIndexer(encoder Encoder, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		encoder:    encoder,
		log:        discardLogger(),
		fsFor:      func(root string) billy.Filesystem { return osfs.New(root) },
		extensions: DefaultExtensions,
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index encodes every recognised image in dir. Files that cannot be read,
// decoded or are rejected by the encoder are logged and skipped; any other
// encoder failure aborts the run.
func (ix *Indexer) Index(ctx context.Context, dir string) (*Index, IndexStats, error) {
	var stats IndexStats

	if strings.TrimSpace(dir) == "" {
		return nil, stats, ErrNoFolder
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve folder: %w", err)
	}

	fs := ix.fsFor(absDir)

	info, err := fs.Stat(fsRoot)
	if err != nil {
		return nil, stats, fmt.Errorf("open folder %s: %w", absDir, err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("open folder %s: %w", absDir, ErrNotDirectory)
	}

	ignore, err := NewIgnoreMatcher(fs)
	if err != nil {
		return nil, stats, fmt.Errorf("read %s: %w", IgnoreFilename, err)
	}

	candidates, err := ix.list(fs, ignore, fsRoot, &stats)
	if err != nil {
		return nil, stats, fmt.Errorf("list folder %s: %w", absDir, err)
	}
	stats.Candidates = len(candidates)

	embeddings := make([]*Embedding, len(candidates))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	for i, rel := range candidates {
		g.Go(func() error {
			imgPath := toAbs(absDir, rel)

			emb, err := ix.encodeFile(gctx, fs, rel)
			if err != nil {
				if isPerImageFailure(err) {
					ix.log.WithField("path", imgPath).WithError(err).Warn("skipping image")
					skipped.Add(1)
					return nil
				}
				return fmt.Errorf("encode %s: %w", imgPath, err)
			}

			embeddings[i] = &emb
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	idx := NewIndex(absDir, ix.encoder.Model())
	for i, rel := range candidates {
		if embeddings[i] == nil {
			continue
		}
		if err := idx.add(toAbs(absDir, rel), *embeddings[i]); err != nil {
			return nil, stats, err
		}
	}

	stats.Indexed = idx.Len()
	stats.Skipped = int(skipped.Load())

	ix.log.WithFields(logrus.Fields{
		"folder":  absDir,
		"indexed": stats.Indexed,
		"skipped": stats.Skipped,
		"ignored": stats.Ignored,
	}).Info("indexed folder")

	return idx, stats, nil
}

func (ix *Indexer) list(fs billy.Filesystem, ignore *IgnoreMatcher, dir string, stats *IndexStats) ([]string, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		rel := path.Join(dir, name)

		if entry.IsDir() {
			if !ix.recursive || strings.HasPrefix(name, ".") || ignore.Match(rel, true) {
				continue
			}
			nested, err := ix.list(fs, ignore, rel, stats)
			if err != nil {
				return nil, err
			}
			files = append(files, nested...)
			continue
		}

		mode := entry.Mode()
		if !(mode.IsRegular() || mode&os.ModeSymlink != 0) || !HasExtension(name, ix.extensions) {
			continue
		}
		if ignore.Match(rel, false) {
			stats.Ignored++
			continue
		}
		files = append(files, rel)
	}

	return files, nil
}

func (ix *Indexer) encodeFile(ctx context.Context, fs billy.Filesystem, rel string) (Embedding, error) {
	img, err := readImage(fs, rel)
	if err != nil {
		return Embedding{}, err
	}

	vec, err := ix.encoder.EncodeImage(ctx, img)
	if err != nil {
		return Embedding{}, err
	}

	return NewEmbedding(vec, ix.encoder.Model())
}

// unreadableImageError marks a file that could not be opened or decoded.
type unreadableImageError struct {
	err error
}

func (e *unreadableImageError) Error() string { return e.err.Error() }
func (e *unreadableImageError) Unwrap() error { return e.err }

func readImage(fs billy.Filesystem, rel string) (image.Image, error) {
	f, err := fs.Open(rel)
	if err != nil {
		return nil, &unreadableImageError{err: fmt.Errorf("open: %w", err)}
	}
	defer f.Close()

	decoded, _, err := DecodeImage(f)
	if err != nil {
		return nil, &unreadableImageError{err: err}
	}
	return decoded, nil
}

func isPerImageFailure(err error) bool {
	var unreadable *unreadableImageError
	return errors.As(err, &unreadable) ||
		errors.Is(err, ErrImageRejected) ||
		errors.Is(err, ErrZeroVector)
}

func toAbs(absDir, rel string) string {
	return filepath.Join(absDir, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}
