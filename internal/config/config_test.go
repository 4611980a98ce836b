package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lansepyy/article-admin/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := FromViper(New())

	if cfg.Browse.PageSize != core.PageSize {
		t.Errorf("Expected page size %d, got %d", core.PageSize, cfg.Browse.PageSize)
	}
	if cfg.Browse.StaleTime != 5*time.Minute {
		t.Errorf("Expected stale time 5m, got %v", cfg.Browse.StaleTime)
	}
	if cfg.Browse.Debounce != 300*time.Millisecond {
		t.Errorf("Expected debounce 300ms, got %v", cfg.Browse.Debounce)
	}
	if cfg.UI.Breakpoint != 768 {
		t.Errorf("Expected breakpoint 768, got %d", cfg.UI.Breakpoint)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ARTICLES_API_BASE_URL", "http://catalog.test/")
	t.Setenv("ARTICLES_BROWSE_PAGE_SIZE", "25")

	cfg := FromViper(New())

	if cfg.API.BaseURL != "http://catalog.test" {
		t.Errorf("Expected trailing slash trimmed base URL, got %q", cfg.API.BaseURL)
	}
	if cfg.Browse.PageSize != 25 {
		t.Errorf("Expected page size 25 from env, got %d", cfg.Browse.PageSize)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("ui:\n  image_mode: blur\nbrowse:\n  siblings: 2\ncache:\n  backend: filesystem\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UI.ImageMode != "blur" {
		t.Errorf("Expected image mode blur, got %q", cfg.UI.ImageMode)
	}
	if cfg.Browse.Siblings != 2 {
		t.Errorf("Expected siblings 2, got %d", cfg.Browse.Siblings)
	}
	if cfg.Cache.Backend != "filesystem" {
		t.Errorf("Expected filesystem backend, got %q", cfg.Cache.Backend)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero page size", func(c *Config) { c.Browse.PageSize = 0 }},
		{"negative siblings", func(c *Config) { c.Browse.Siblings = -1 }},
		{"bad image mode", func(c *Config) { c.UI.ImageMode = "sepia" }},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "redis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromViper(New())
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
