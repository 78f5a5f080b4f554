package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/4thel00z/pixseek/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-index a folder whenever its images change",
		Long: `Watch a folder for added, changed or removed images and rebuild the
index after each burst of changes. With --query the search is re-run and
printed after every rebuild.`,
		Args: cobra.ExactArgs(1),
		RunE: makeWatchRunner(a),
	}

	cmd.Flags().StringP("query", "q", "", "Query to re-run after each re-index")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	cmd.Flags().IntP("number", "n", internal.DefaultTopK, "Maximum results (0 for all)")
	cmd.Flags().Float32("threshold", internal.DefaultThreshold, "Minimum similarity score")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		if query != "" && strings.TrimSpace(query) == "" {
			return fmt.Errorf("watch: %w", internal.ErrEmptyQuery)
		}

		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve folder: %w", err)
		}

		if err := a.open(cmd); err != nil {
			return err
		}

		w := &watcher{
			uc:    a.useCases(a.threshold(cmd)),
			cmd:   cmd,
			dir:   dir,
			query: query,
			topK:  a.topK(cmd),
			exts:  a.cfg.Index.Extensions,
		}

		// The first index must succeed; later failures keep the last good one.
		if err := w.reindex(); err != nil {
			return err
		}

		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer fsw.Close()

		if err := addWatchDirs(fsw, dir, a.cfg.Index.Recursive); err != nil {
			return fmt.Errorf("add watch dirs: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", dir)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-fsw.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event, w.exts) {
					continue
				}
				if event.Has(fsnotify.Create) && a.cfg.Index.Recursive {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = addWatchDirs(fsw, event.Name, true)
					}
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return nil
				}
				a.log.WithError(err).Warn("watch error")
			case <-timer.C:
				pending = false
				if err := w.reindex(); err != nil {
					a.log.WithError(err).Error("re-index failed, keeping previous index")
				}
			}
		}
	}
}

type watcher struct {
	uc    *internal.UseCases
	cmd   *cobra.Command
	dir   string
	query string
	topK  int
	exts  []string
}

func (w *watcher) reindex() error {
	ctx := w.cmd.Context()
	out := w.cmd.OutOrStdout()

	indexed, err := w.uc.Index.Execute(ctx, internal.IndexInput{Folder: w.dir})
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := printIndexed(out, indexed, asJSON(w.cmd)); err != nil {
		return err
	}

	if w.query == "" {
		return nil
	}

	results, err := w.uc.Search.Execute(ctx, internal.SearchInput{
		Query: w.query,
		TopK:  w.topK,
		Index: indexed.Vector,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return printResults(out, results, asJSON(w.cmd))
}

func addWatchDirs(watcher *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		return watcher.Add(root)
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// shouldIgnoreEvent drops events that cannot change the index: attribute
// changes, hidden files and files that are neither images nor .pixignore.
func shouldIgnoreEvent(event fsnotify.Event, exts []string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}

	base := filepath.Base(event.Name)
	if base == internal.IgnoreFilename {
		return false
	}
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Directories carry no extension; a created or removed folder may hold images.
	if filepath.Ext(base) == "" {
		return false
	}

	return !internal.HasExtension(base, exts)
}
