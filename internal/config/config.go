// Package config loads and validates the site configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the slotmark site configuration
type Config struct {
	Title       string                      `yaml:"title"`
	Description string                      `yaml:"description"`
	BaseURL     string                      `yaml:"base_url,omitempty"`
	ContentDir  string                      `yaml:"content_dir"`
	LayoutsDir  string                      `yaml:"layouts_dir"`
	OutputDir   string                      `yaml:"output_dir"`
	Collections map[string]CollectionConfig `yaml:"collections,omitempty"`
	Metadata    map[string]interface{}      `yaml:"metadata,omitempty"` // global metadata defaults
	Cache       CacheConfig                 `yaml:"cache"`
	Watch       WatchConfig                 `yaml:"watch"`
	Ignore      []string                    `yaml:"ignore,omitempty"`
}

// CollectionConfig defines one content collection
type CollectionConfig struct {
	Path     string                 `yaml:"path"`               // directory relative to content_dir (default: collection name)
	Layout   string                 `yaml:"layout,omitempty"`   // default layout for items without one
	Metadata map[string]interface{} `yaml:"metadata,omitempty"` // collection-level metadata defaults
}

// CacheConfig configures the persistent render cache
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // SQLite file path (default: .slotmark/render.db)
}

// WatchConfig configures the file watcher
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Debounce string `yaml:"debounce,omitempty"` // e.g. "200ms"
}

// Dir resolves a collection's content directory under contentDir.
func (c CollectionConfig) Dir(contentDir, name string) string {
	path := c.Path
	if path == "" {
		path = name
	}
	return filepath.Join(contentDir, path)
}

// GetDebounce returns the parsed watch debounce interval (default: 200ms)
func (w WatchConfig) GetDebounce() time.Duration {
	if w.Debounce == "" {
		return 200 * time.Millisecond
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

// CachePath returns the cache file path, defaulting to .slotmark/render.db.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(".slotmark", "render.db")
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	for name, col := range c.Collections {
		if name == "" {
			return fmt.Errorf("collection with empty name")
		}
		if filepath.IsAbs(col.Path) {
			return fmt.Errorf("collection %q: path must be relative to content_dir", name)
		}
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Title:      "Site",
		ContentDir: "content",
		LayoutsDir: "layouts",
		OutputDir:  "public",
		Collections: map[string]CollectionConfig{
			"content": {Path: "."},
		},
		Cache: CacheConfig{Enabled: true},
		Watch: WatchConfig{Enabled: false, Debounce: "200ms"},
	}
}

// Load reads the configuration from configPath, merged over defaults. A
// missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// LoadFromDir looks for slotmark.yaml or slotmark.yml in the given
// directory. If neither is found, returns the default configuration.
func LoadFromDir(dir string) (*Config, error) {
	yamlPath := filepath.Join(dir, "slotmark.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return Load(yamlPath)
	}
	return Load(filepath.Join(dir, "slotmark.yml"))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
