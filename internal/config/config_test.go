package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if cfg.Pipeline.MinSubheadings != 2 || cfg.Pipeline.MaxSubheadings != 5 {
		t.Errorf("expected subheading range [2,5], got [%d,%d]", cfg.Pipeline.MinSubheadings, cfg.Pipeline.MaxSubheadings)
	}
	if cfg.Pipeline.MinTags != 2 || cfg.Pipeline.MaxTags != 5 {
		t.Errorf("expected tag range [2,5], got [%d,%d]", cfg.Pipeline.MinTags, cfg.Pipeline.MaxTags)
	}
	if cfg.Search.Endpoint == "" {
		t.Error("expected default search endpoint")
	}
	if err := validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.MaxRetriesPerStage != 2 {
		t.Errorf("expected default retry budget 2, got %d", cfg.Pipeline.MaxRetriesPerStage)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("pipeline:\n  max_retries_per_stage: 7\n  workers: 3\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.MaxRetriesPerStage != 7 {
		t.Errorf("expected override 7, got %d", cfg.Pipeline.MaxRetriesPerStage)
	}
	if cfg.Workers() != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Workers())
	}
	// Untouched sections keep defaults
	if cfg.Pipeline.MinSubheadings != 2 {
		t.Errorf("expected default min_subheadings 2, got %d", cfg.Pipeline.MinSubheadings)
	}
}

func TestLoadRejectsBadRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("pipeline:\n  min_subheadings: 5\n  max_subheadings: 2\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for inverted subheading range")
	}
}

func TestLoadRejectsBadEndpointScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("search:\n  endpoint: ftp://example.com/search\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-http endpoint scheme")
	}
}

func TestStageTimeout(t *testing.T) {
	cfg := &Config{}
	if got := cfg.StageTimeout(); got != 2*time.Minute {
		t.Errorf("expected 2m default, got %s", got)
	}
	cfg.Pipeline.StageTimeout = "30s"
	if got := cfg.StageTimeout(); got != 30*time.Second {
		t.Errorf("expected 30s, got %s", got)
	}
}

func TestCacheTTL(t *testing.T) {
	cfg := &Config{}
	if got := cfg.CacheTTL(); got != 0 {
		t.Errorf("expected no TTL by default, got %s", got)
	}
	cfg.Cache.TTL = "1h"
	if got := cfg.CacheTTL(); got != time.Hour {
		t.Errorf("expected 1h, got %s", got)
	}
	cfg.Cache.TTL = "garbage"
	if got := cfg.CacheTTL(); got != 0 {
		t.Errorf("expected 0 for unparseable TTL, got %s", got)
	}
}

func TestKeyEnvFallback(t *testing.T) {
	cfg := &Config{}
	t.Setenv("N2B_OPENAI_KEY", "env-key")
	if got := cfg.LLMKey(); got != "env-key" {
		t.Errorf("expected env fallback, got %q", got)
	}
	cfg.LLM.APIKey = "file-key"
	if got := cfg.LLMKey(); got != "file-key" {
		t.Errorf("config key should win over env, got %q", got)
	}
}
