package main

import (
	"fmt"

	"github.com/4thel00z/pixseek/internal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries what every subcommand shares: the effective config, the
// logger and the single encoder instance for the process.
type app struct {
	newEncoder  func(internal.EncoderConfig) (internal.Encoder, error)
	indexerOpts []internal.IndexerOption

	cfg     *internal.Config
	log     *logrus.Logger
	encoder internal.Encoder
}

func newApp() *app {
	return &app{newEncoder: internal.NewEncoder}
}

// loadConfig resolves and reads the config once per process.
func (a *app) loadConfig(cmd *cobra.Command) error {
	if a.cfg != nil {
		return nil
	}

	flagPath, _ := cmd.Flags().GetString("config")
	path, err := internal.ConfigPath(flagPath)
	if err != nil {
		return err
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	log, err := internal.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	log.SetOutput(cmd.ErrOrStderr())

	a.cfg = cfg
	a.log = log
	return nil
}

// open loads the config and starts the encoder.
func (a *app) open(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}
	if a.encoder != nil {
		return nil
	}

	enc, err := a.newEncoder(a.cfg.Encoder)
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"backend": a.cfg.Encoder.Backend,
		"url":     a.cfg.Encoder.BaseURL,
		"model":   enc.Model(),
	}).Debug("encoder ready")

	a.encoder = enc
	return nil
}

func (a *app) close() error {
	if a.encoder == nil {
		return nil
	}
	err := a.encoder.Close()
	a.encoder = nil
	return err
}

func (a *app) useCases(threshold float32) *internal.UseCases {
	indexer := internal.NewIndexer(a.encoder, append([]internal.IndexerOption{
		internal.WithIndexLogger(a.log),
		internal.WithExtensions(a.cfg.Index.Extensions),
		internal.WithRecursive(a.cfg.Index.Recursive),
		internal.WithWorkers(a.cfg.Index.Workers),
	}, a.indexerOpts...)...)

	searcher := internal.NewSearcher(a.encoder,
		internal.WithThreshold(threshold),
		internal.WithSearchLogger(a.log),
	)

	return &internal.UseCases{
		Index:  internal.NewIndexUseCase(indexer, a.cfg.Search.Backend, a.cfg.Search.Trees),
		Search: internal.NewSearchUseCase(searcher),
	}
}

// threshold prefers an explicit --threshold over the config value.
func (a *app) threshold(cmd *cobra.Command) float32 {
	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		t, _ := cmd.Flags().GetFloat32("threshold")
		return t
	}
	return a.cfg.Search.Threshold
}

// topK prefers an explicit -n over the config value.
func (a *app) topK(cmd *cobra.Command) int {
	if f := cmd.Flags().Lookup("number"); f != nil && f.Changed {
		n, _ := cmd.Flags().GetInt("number")
		return n
	}
	return a.cfg.Search.TopK
}
