package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendOpenAI = "openai"

	SearchBackendFlat  = "flat"
	SearchBackendAnnoy = "annoy"

	ConfigEnvVar = "PIX_CONFIG"
)

type EncoderConfig struct {
	Backend   string        `yaml:"backend"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key,omitempty"`
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension"`
	ImageSize int           `yaml:"image_size"`
	RateLimit float64       `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
}

type IndexConfig struct {
	Extensions []string `yaml:"extensions"`
	Recursive  bool     `yaml:"recursive"`
	Workers    int      `yaml:"workers"`
}

type SearchConfig struct {
	Threshold float32 `yaml:"threshold"`
	TopK      int     `yaml:"top_k"`
	Backend   string  `yaml:"backend"`
	Trees     int     `yaml:"trees"`
}

type Config struct {
	Encoder EncoderConfig `yaml:"encoder"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Log     LogConfig     `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Encoder: EncoderConfig{
			Backend:   BackendOpenAI,
			BaseURL:   DefaultEncoderURL,
			Model:     DefaultEncoderModel,
			Dimension: DefaultDimension,
			ImageSize: DefaultImageSize,
		},
		Index: IndexConfig{
			Extensions: append([]string(nil), DefaultExtensions...),
			Workers:    DefaultWorkers,
		},
		Search: SearchConfig{
			Threshold: DefaultThreshold,
			TopK:      DefaultTopK,
			Backend:   SearchBackendFlat,
			Trees:     DefaultTrees,
		},
		Log: DefaultLogConfig(),
	}
}

// ConfigPath picks the config file: explicit path, then $PIX_CONFIG, then
// the user config directory.
func ConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return env, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "pix", "config.yaml"), nil
}

// LoadConfig reads path over the defaults, then applies .env and PIX_*
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PIX_ENCODER_URL"); v != "" {
		c.Encoder.BaseURL = v
	}
	if v := os.Getenv("PIX_API_KEY"); v != "" {
		c.Encoder.APIKey = v
	}
	if v := os.Getenv("PIX_MODEL"); v != "" {
		c.Encoder.Model = v
	}
	if v := os.Getenv("PIX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PIX_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("parse PIX_THRESHOLD: %w", err)
		}
		c.Search.Threshold = float32(f)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Encoder.Backend != BackendOpenAI {
		return fmt.Errorf("unsupported encoder backend: %q", c.Encoder.Backend)
	}
	if c.Encoder.Dimension < 0 {
		return fmt.Errorf("encoder.dimension must not be negative")
	}
	if c.Encoder.ImageSize < 0 {
		return fmt.Errorf("encoder.image_size must not be negative")
	}
	if c.Encoder.RateLimit < 0 {
		return fmt.Errorf("encoder.rate_limit must not be negative")
	}
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1")
	}
	if c.Search.Threshold < -1 || c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be within [-1, 1], got %v", c.Search.Threshold)
	}
	switch c.Search.Backend {
	case SearchBackendFlat, SearchBackendAnnoy:
	default:
		return fmt.Errorf("unsupported search backend: %q", c.Search.Backend)
	}
	return nil
}

// NewEncoder builds the process-wide encoder described by cfg.
func NewEncoder(cfg EncoderConfig) (Encoder, error) {
	switch cfg.Backend {
	case BackendOpenAI:
		return NewOpenAIEncoder(cfg.BaseURL, cfg.Model,
			WithAPIKey(cfg.APIKey),
			WithDimension(cfg.Dimension),
			WithImageSize(cfg.ImageSize),
			WithRateLimit(cfg.RateLimit),
			WithTimeout(cfg.Timeout),
		), nil
	default:
		return nil, fmt.Errorf("unsupported encoder backend: %s", cfg.Backend)
	}
}
