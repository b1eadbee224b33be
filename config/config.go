package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CollectionConfig groups per-collection settings.
type CollectionConfig struct {
	Name       string `yaml:"-"`
	SortBy     string `yaml:"sort_by"`
	SortOrder  string `yaml:"sort_order"`
	Template   string `yaml:"template"`
	URLPattern string `yaml:"url_pattern"`
}

// MinifyConfig toggles minification per output kind.
type MinifyConfig struct {
	HTML bool `yaml:"html"`
	CSS  bool `yaml:"css"`
	JS   bool `yaml:"js"`
}

// Config encapsulates site and build-time options.
type Config struct {
	SiteName    string   `yaml:"site_name"`
	Author      string   `yaml:"author"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Keywords    []string `yaml:"keywords"`

	GithubURL   string `yaml:"github_url"`
	XTwitterURL string `yaml:"x_twitter_url"`

	OutputDir    string `yaml:"output_dir"`
	StaticDir    string `yaml:"static_dir"`
	ContentDir   string `yaml:"content_dir"`
	TemplatesDir string `yaml:"templates_dir"`

	MinifyOutput bool                        `yaml:"minify_output"`
	Minifier     string                      `yaml:"minifier"`
	Minify       MinifyConfig                `yaml:"minify"`
	Collections  map[string]CollectionConfig `yaml:"collections"`
	Defaults     map[string]string           `yaml:"defaults"`

	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	root   string         `yaml:"-"`
	custom map[string]any `yaml:"-"`
}

// Load reads forge.yaml from the project root and applies sane defaults.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, "forge.yaml")
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := &Config{Minify: MinifyConfig{HTML: true, CSS: true, JS: true}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Every top-level key, known or not, stays available as custom site data.
	custom := map[string]any{}
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.custom = custom
	cfg.root = root

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	c.SiteName = strings.TrimSpace(c.SiteName)
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.TemplatesDir == "" {
		c.TemplatesDir = "templates"
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Minifier == "" {
		c.Minifier = "delegated"
	}

	for name, col := range c.Collections {
		col.Name = name
		if col.SortBy == "" {
			col.SortBy = "date"
		}
		if col.SortOrder == "" {
			col.SortOrder = "desc"
		}
		c.Collections[name] = col
	}
	return nil
}

func (c *Config) validate() error {
	if c.Minifier != "delegated" && c.Minifier != "builtin" {
		return fmt.Errorf("minifier must be delegated or builtin, got %q", c.Minifier)
	}
	for name, col := range c.Collections {
		if col.SortOrder != "asc" && col.SortOrder != "desc" {
			return fmt.Errorf("collection %q: sort_order must be asc or desc, got %q", name, col.SortOrder)
		}
	}
	return nil
}

// Root returns the project root the configuration was loaded from.
func (c *Config) Root() string { return c.root }

// ContentRoot returns the absolute content directory.
func (c *Config) ContentRoot() string { return filepath.Join(c.root, c.ContentDir) }

// TemplatesRoot returns the absolute templates directory.
func (c *Config) TemplatesRoot() string { return filepath.Join(c.root, c.TemplatesDir) }

// OutputRoot returns the absolute output directory.
func (c *Config) OutputRoot() string { return filepath.Join(c.root, c.OutputDir) }

// StaticRoot returns the absolute static asset directory.
func (c *Config) StaticRoot() string { return filepath.Join(c.root, c.StaticDir) }

// Collection looks up settings for a named collection.
func (c *Config) Collection(name string) (CollectionConfig, bool) {
	col, ok := c.Collections[name]
	return col, ok
}

// SiteData produces the template-facing "site" context: the raw custom tree
// overlaid with canonical keys and the configured defaults.
func (c *Config) SiteData() map[string]any {
	data := make(map[string]any, len(c.custom)+8)
	for k, v := range c.custom {
		data[k] = v
	}
	data["name"] = c.SiteName
	data["title"] = c.SiteName
	data["author"] = c.Author
	data["description"] = c.Description
	data["keywords"] = strings.Join(c.Keywords, ", ")
	data["url"] = c.URL
	data["github_url"] = c.GithubURL
	data["x_twitter_url"] = c.XTwitterURL
	for k, v := range c.Defaults {
		data[k] = v
	}
	return data
}

// CustomField returns a top-level config value by name.
func (c *Config) CustomField(name string) (any, bool) {
	v, ok := c.custom[name]
	return v, ok
}
