// Package config provides configuration management for prodstore.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prodstore/prodstore/internal/hashindex"
)

// Config holds the prodstore configuration.
type Config struct {
	// Index
	Buckets int `json:"buckets" yaml:"buckets"`

	// Files
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	SnapshotDir string `json:"snapshot_dir" yaml:"snapshot_dir"`
	DefaultFile string `json:"default_file" yaml:"default_file"`

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Change feed ring buffer capacity
	ChangeFeedSize int `json:"change_feed_size" yaml:"change_feed_size"`

	// Lookup ranking shown by TOP. popular_half_life is a Go duration
	// ("10m"); empty or "0" keeps raw counts forever.
	PopularTop      int    `json:"popular_top" yaml:"popular_top"`
	PopularHalfLife string `json:"popular_half_life,omitempty" yaml:"popular_half_life,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Buckets:        hashindex.DefaultBuckets,
		DataDir:        "data",
		DefaultFile:    "products.csv",
		LogLevel:       "info",
		ChangeFeedSize: 1024,
		PopularTop:     10,
	}
}

// Load loads configuration from a YAML (.yaml, .yml) or JSON file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration, as YAML or JSON depending on the extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SnapshotPath returns the snapshot directory, defaulting to
// <data_dir>/snapshots.
func (c *Config) SnapshotPath() string {
	if c.SnapshotDir != "" {
		return c.SnapshotDir
	}
	return filepath.Join(c.DataDir, "snapshots")
}

// DefaultPath returns the catalogue file used by save and load when no
// file is named. Relative names resolve against data_dir.
func (c *Config) DefaultPath() string {
	if filepath.IsAbs(c.DefaultFile) {
		return c.DefaultFile
	}
	return filepath.Join(c.DataDir, c.DefaultFile)
}

// HalfLife returns the parsed popular_half_life, 0 when unset or invalid.
// Load rejects invalid values, so 0 only means "no decay" for loaded configs.
func (c *Config) HalfLife() time.Duration {
	if c.PopularHalfLife == "" {
		return 0
	}
	d, err := time.ParseDuration(c.PopularHalfLife)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (c *Config) validate() error {
	if c.PopularHalfLife == "" {
		return nil
	}
	d, err := time.ParseDuration(c.PopularHalfLife)
	if err != nil {
		return fmt.Errorf("popular_half_life: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("popular_half_life: must not be negative, got %s", c.PopularHalfLife)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Buckets <= 0 {
		c.Buckets = hashindex.DefaultBuckets
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.DefaultFile == "" {
		c.DefaultFile = "products.csv"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ChangeFeedSize <= 0 {
		c.ChangeFeedSize = 1024
	}
	if c.PopularTop <= 0 {
		c.PopularTop = 10
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
