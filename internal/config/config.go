package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// PathsConfig holds input/output directory settings.
type PathsConfig struct {
	InboxDir  string `yaml:"inbox_dir"`
	OutputDir string `yaml:"output_dir"`
	ImagesDir string `yaml:"images_dir"`
}

// PipelineConfig holds orchestrator tuning values.
type PipelineConfig struct {
	MaxRetriesPerStage int    `yaml:"max_retries_per_stage"`
	StageTimeout       string `yaml:"stage_timeout"`
	MinSubheadings     int    `yaml:"min_subheadings"`
	MaxSubheadings     int    `yaml:"max_subheadings"`
	MinTags            int    `yaml:"min_tags"`
	MaxTags            int    `yaml:"max_tags"`
	Workers            int    `yaml:"workers"`
}

// LLMConfig configures the completion capability.
type LLMConfig struct {
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// SearchConfig configures the web-search capability.
type SearchConfig struct {
	Endpoint   string  `yaml:"endpoint"`
	APIKey     string  `yaml:"api_key"`
	MaxResults int     `yaml:"max_results"`
	MinScore   float64 `yaml:"min_score"`
}

// ImageConfig configures the image-synthesis capability.
type ImageConfig struct {
	Model    string `yaml:"model"`
	APIToken string `yaml:"api_token"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

// CacheConfig configures the research cache.
type CacheConfig struct {
	Path string `yaml:"path,omitempty"`
	TTL  string `yaml:"ttl"`
}

type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	Image    ImageConfig    `yaml:"image"`
	Cache    CacheConfig    `yaml:"cache"`
}

// LLMKey returns the resolved LLM API key (config or env var).
func (c *Config) LLMKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	return os.Getenv("N2B_OPENAI_KEY")
}

// SearchKey returns the resolved search API key (config or env var).
func (c *Config) SearchKey() string {
	if c.Search.APIKey != "" {
		return c.Search.APIKey
	}
	return os.Getenv("N2B_BRAVE_KEY")
}

// ImageToken returns the resolved image API token (config or env var).
func (c *Config) ImageToken() string {
	if c.Image.APIToken != "" {
		return c.Image.APIToken
	}
	return os.Getenv("N2B_REPLICATE_TOKEN")
}

// StageTimeout parses the per-stage timeout, defaulting to 2 minutes.
func (c *Config) StageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.StageTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// CacheTTL parses the research-cache TTL. Zero means entries never expire.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Workers returns the batch worker count, defaulting to 1 (sequential).
func (c *Config) Workers() int {
	if c.Pipeline.Workers <= 0 {
		return 1
	}
	return c.Pipeline.Workers
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "notes2blog", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "notes2blog", "research.db")
}

// ResolvedCachePath returns the configured cache path or the XDG default.
func (c *Config) ResolvedCachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return CachePath()
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := *defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	p := cfg.Pipeline
	if p.MaxRetriesPerStage < 0 {
		return fmt.Errorf("pipeline: max_retries_per_stage must be >= 0, got %d", p.MaxRetriesPerStage)
	}
	if p.MinSubheadings < 1 || p.MaxSubheadings < p.MinSubheadings {
		return fmt.Errorf("pipeline: invalid subheading range [%d,%d]", p.MinSubheadings, p.MaxSubheadings)
	}
	if p.MinTags < 1 || p.MaxTags < p.MinTags {
		return fmt.Errorf("pipeline: invalid tag range [%d,%d]", p.MinTags, p.MaxTags)
	}
	if cfg.Search.Endpoint != "" {
		u, err := url.Parse(cfg.Search.Endpoint)
		if err != nil {
			return fmt.Errorf("search: invalid endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("search: endpoint scheme must be http or https, got %q", u.Scheme)
		}
	}
	if cfg.Image.Width <= 0 || cfg.Image.Height <= 0 {
		return fmt.Errorf("image: dimensions must be positive, got %dx%d", cfg.Image.Width, cfg.Image.Height)
	}
	if cfg.Paths.InboxDir == "" {
		return fmt.Errorf("paths: inbox_dir is required")
	}
	if cfg.Paths.OutputDir == "" {
		return fmt.Errorf("paths: output_dir is required")
	}
	return nil
}
