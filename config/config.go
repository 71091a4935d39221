// Package config provides configuration loading and management for zettelforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete zettelforge configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Extract ExtractConfig `yaml:"extract"`
	IDs     IDConfig      `yaml:"ids"`
	Links   LinkConfig    `yaml:"links"`
	Output  OutputConfig  `yaml:"output"`
	NATS    NATSConfig    `yaml:"nats"`
}

// SourceConfig configures document scanning
type SourceConfig struct {
	// Roots are the directories or glob patterns to scan for documents
	Roots []string `yaml:"roots"`
	// Exclude are glob patterns matched against relative paths
	Exclude []string `yaml:"exclude"`
	// Extensions are the recognized file extensions (default: .md)
	Extensions []string `yaml:"extensions"`
}

// ExtractConfig configures concept extraction
type ExtractConfig struct {
	// Granularity is fine, medium, or coarse (default: medium)
	Granularity string `yaml:"granularity"`
}

// IDConfig configures Folgezettel id allocation
type IDConfig struct {
	// Prefix is the id prefix (default: AKU)
	Prefix string `yaml:"prefix"`
}

// LinkConfig configures link resolution and auto-linking
type LinkConfig struct {
	// SimilarityThreshold is the fuzzy title-match cutoff (0.0-1.0)
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// AutoLinkThreshold is the shared-tag overlap cutoff (0.0-1.0)
	AutoLinkThreshold float64 `yaml:"auto_link_threshold"`
}

// OutputConfig configures artifact persistence
type OutputConfig struct {
	// Dir is the knowledge base output directory
	Dir string `yaml:"dir"`
	// Backend selects the store backend: "file" or "nats"
	Backend string `yaml:"backend"`
}

// NATSConfig configures the NATS connection for the KV store backend
type NATSConfig struct {
	// URL is the NATS server URL (required when output.backend is "nats")
	URL string `yaml:"url"`
}

// Store backend names.
const (
	BackendFile = "file"
	BackendNATS = "nats"
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Roots:      nil, // Set from the CLI source path
			Exclude:    []string{"**/node_modules/**", "**/.git/**"},
			Extensions: []string{".md"},
		},
		Extract: ExtractConfig{
			Granularity: "medium",
		},
		IDs: IDConfig{
			Prefix: "AKU",
		},
		Links: LinkConfig{
			SimilarityThreshold: 0.6,
			AutoLinkThreshold:   0.5,
		},
		Output: OutputConfig{
			Dir:     "knowledge-base",
			Backend: BackendFile,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Extract.Granularity {
	case "fine", "medium", "coarse":
	default:
		return fmt.Errorf("extract.granularity must be fine, medium, or coarse")
	}
	if c.IDs.Prefix == "" {
		return fmt.Errorf("ids.prefix is required")
	}
	if c.Links.SimilarityThreshold < 0 || c.Links.SimilarityThreshold > 1 {
		return fmt.Errorf("links.similarity_threshold must be between 0 and 1")
	}
	if c.Links.AutoLinkThreshold < 0 || c.Links.AutoLinkThreshold > 1 {
		return fmt.Errorf("links.auto_link_threshold must be between 0 and 1")
	}
	switch c.Output.Backend {
	case BackendFile:
	case BackendNATS:
		if c.NATS.URL == "" {
			return fmt.Errorf("nats.url is required when output.backend is %q", BackendNATS)
		}
	default:
		return fmt.Errorf("output.backend must be %q or %q", BackendFile, BackendNATS)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Source
	if len(other.Source.Roots) > 0 {
		c.Source.Roots = other.Source.Roots
	}
	if len(other.Source.Exclude) > 0 {
		c.Source.Exclude = other.Source.Exclude
	}
	if len(other.Source.Extensions) > 0 {
		c.Source.Extensions = other.Source.Extensions
	}

	// Extract
	if other.Extract.Granularity != "" {
		c.Extract.Granularity = other.Extract.Granularity
	}

	// IDs
	if other.IDs.Prefix != "" {
		c.IDs.Prefix = other.IDs.Prefix
	}

	// Links
	if other.Links.SimilarityThreshold != 0 {
		c.Links.SimilarityThreshold = other.Links.SimilarityThreshold
	}
	if other.Links.AutoLinkThreshold != 0 {
		c.Links.AutoLinkThreshold = other.Links.AutoLinkThreshold
	}

	// Output
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.Backend != "" {
		c.Output.Backend = other.Output.Backend
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
