// Package config loads layered configuration for the articles CLI.
//
// Precedence, lowest to highest: built-in defaults, config.yaml, ARTICLES_*
// environment variables, bound command-line flags.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lansepyy/article-admin/internal/core"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	API     API
	Browse  Browse
	UI      UI
	Cache   Cache
	Catalog Catalog
	Log     Log
}

// API holds data source transport settings.
type API struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	MaxRetries    int
}

// Browse holds pagination controller settings.
type Browse struct {
	PageSize  int
	StaleTime time.Duration
	Debounce  time.Duration
	Siblings  int
}

// UI holds terminal rendering preferences.
type UI struct {
	Breakpoint int
	CellWidth  int
	ImageMode  string // "show", "blur" or "hide"
}

// Cache holds query cache settings.
type Cache struct {
	Backend string // "memory" or "filesystem"
	Dir     string
}

// Catalog holds settings for the local catalog service.
type Catalog struct {
	Addr string
	DB   string
	Seed string
}

// Log holds logger settings.
type Log struct {
	Level  string
	Format string
	Output string
	File   string
}

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", core.DefaultAPIBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate_per_second", 5.0)
	v.SetDefault("api.max_retries", 3)

	v.SetDefault("browse.page_size", core.PageSize)
	v.SetDefault("browse.stale_time", core.StaleTime)
	v.SetDefault("browse.debounce", core.DebounceDelay)
	v.SetDefault("browse.siblings", core.SiblingCount)

	v.SetDefault("ui.breakpoint", core.CompactBreakpoint)
	v.SetDefault("ui.cell_width", core.CellWidthPx)
	v.SetDefault("ui.image_mode", "show")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.dir", core.CacheRoot())

	v.SetDefault("catalog.addr", ":8080")
	v.SetDefault("catalog.db", filepath.Join(core.StateRoot(), "catalog.db"))
	v.SetDefault("catalog.seed", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file", filepath.Join(core.StateRoot(), "logs", "articles.log"))
}

// New returns a viper instance with defaults, env binding and search paths set.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("articles")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and resolves v into a Config.
// An explicit configPath must exist; the default search paths may be empty.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(core.StateRoot())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); configPath != "" || !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper resolves the current values of v without reading files.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		API: API{
			BaseURL:       strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout:       v.GetDuration("api.timeout"),
			RatePerSecond: v.GetFloat64("api.rate_per_second"),
			MaxRetries:    v.GetInt("api.max_retries"),
		},
		Browse: Browse{
			PageSize:  v.GetInt("browse.page_size"),
			StaleTime: v.GetDuration("browse.stale_time"),
			Debounce:  v.GetDuration("browse.debounce"),
			Siblings:  v.GetInt("browse.siblings"),
		},
		UI: UI{
			Breakpoint: v.GetInt("ui.breakpoint"),
			CellWidth:  v.GetInt("ui.cell_width"),
			ImageMode:  strings.ToLower(v.GetString("ui.image_mode")),
		},
		Cache: Cache{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			Dir:     v.GetString("cache.dir"),
		},
		Catalog: Catalog{
			Addr: v.GetString("catalog.addr"),
			DB:   v.GetString("catalog.db"),
			Seed: v.GetString("catalog.seed"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
			File:   v.GetString("log.file"),
		},
	}
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.Browse.PageSize <= 0 {
		return fmt.Errorf("browse.page_size must be positive, got %d", c.Browse.PageSize)
	}
	if c.Browse.Siblings < 0 {
		return fmt.Errorf("browse.siblings must not be negative, got %d", c.Browse.Siblings)
	}
	if c.UI.Breakpoint <= 0 || c.UI.CellWidth <= 0 {
		return fmt.Errorf("ui.breakpoint and ui.cell_width must be positive")
	}
	switch c.UI.ImageMode {
	case "show", "blur", "hide":
	default:
		return fmt.Errorf("ui.image_mode must be show, blur or hide, got %q", c.UI.ImageMode)
	}
	switch c.Cache.Backend {
	case "memory", "filesystem":
	default:
		return fmt.Errorf("cache.backend must be memory or filesystem, got %q", c.Cache.Backend)
	}
	return nil
}
