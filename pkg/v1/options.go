package v1

import (
	"github.com/4thel00z/pixseek/internal"
	"github.com/sirupsen/logrus"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	configPath string
	encoder    internal.Encoder
	threshold  *float32
	log        logrus.FieldLogger
}

// WithConfigPath reads settings from a pix config file instead of the defaults.
func WithConfigPath(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
	}
}

// WithEncoder supplies the encoder. The client does not close it.
func WithEncoder(enc Encoder) Option {
	return func(c *clientConfig) {
		c.encoder = enc
	}
}

// WithThreshold overrides the minimum similarity score of search results.
func WithThreshold(threshold float32) Option {
	return func(c *clientConfig) {
		c.threshold = &threshold
	}
}

// WithLogger sets the logger for indexing and search diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *clientConfig) {
		c.log = log
	}
}
