// Package config loads user settings from ~/.disko/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/scanner"
)

// ErrInvalid is wrapped by every Validate failure
var ErrInvalid = errors.New("invalid config")

// Config holds disko settings
type Config struct {
	// Threads is the number of directories read in parallel (1 = sequential)
	Threads int `yaml:"threads"`

	// Sort enumerates directory children by name
	Sort bool `yaml:"sort"`

	// SizeMode selects the size shown at startup: "disk" or "apparent"
	SizeMode string `yaml:"size_mode"`

	// CountDirSize includes each directory's own footprint in totals
	CountDirSize bool `yaml:"count_dir_size"`

	// OneFileSystem stops the walk at mount points
	OneFileSystem bool `yaml:"one_file_system"`

	// Exclude holds name glob patterns left out of the walk
	Exclude []string `yaml:"exclude"`

	// StatsFile is where freed-space statistics are kept
	StatsFile string `yaml:"stats_file"`
}

// fileConfig mirrors Config with pointers so absent keys keep their defaults
type fileConfig struct {
	Threads       *int     `yaml:"threads"`
	Sort          *bool    `yaml:"sort"`
	SizeMode      *string  `yaml:"size_mode"`
	CountDirSize  *bool    `yaml:"count_dir_size"`
	OneFileSystem *bool    `yaml:"one_file_system"`
	Exclude       []string `yaml:"exclude"`
	StatsFile     *string  `yaml:"stats_file"`
}

// Dir returns the directory holding disko's files
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".disko"
	}
	return filepath.Join(home, ".disko")
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Threads:       runtime.NumCPU(),
		SizeMode:      model.SizeDisk.String(),
		CountDirSize:  true,
		OneFileSystem: true,
		StatsFile:     filepath.Join(Dir(), "stats.json"),
	}
}

// Load reads the config at path. A missing file yields the defaults; a
// malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.merge(fc)
	return cfg, nil
}

func (c *Config) merge(fc fileConfig) {
	if fc.Threads != nil {
		c.Threads = *fc.Threads
	}
	if fc.Sort != nil {
		c.Sort = *fc.Sort
	}
	if fc.SizeMode != nil {
		c.SizeMode = *fc.SizeMode
	}
	if fc.CountDirSize != nil {
		c.CountDirSize = *fc.CountDirSize
	}
	if fc.OneFileSystem != nil {
		c.OneFileSystem = *fc.OneFileSystem
	}
	if fc.Exclude != nil {
		c.Exclude = fc.Exclude
	}
	if fc.StatsFile != nil {
		c.StatsFile = expandHome(*fc.StatsFile)
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("%w: threads must be >= 1, got %d", ErrInvalid, c.Threads)
	}
	if _, err := model.ParseSizeMode(c.SizeMode); err != nil {
		return fmt.Errorf("%w: size_mode: %w", ErrInvalid, err)
	}
	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: exclude pattern %q: %w", ErrInvalid, pattern, err)
		}
	}
	return nil
}

// Mode returns the parsed size mode; call after Validate
func (c *Config) Mode() model.SizeMode {
	mode, _ := model.ParseSizeMode(c.SizeMode)
	return mode
}

// ScanOptions converts the walk related settings
func (c *Config) ScanOptions() scanner.Options {
	return scanner.Options{
		Workers:       c.Threads,
		Sort:          c.Sort,
		CountDirSize:  c.CountDirSize,
		OneFileSystem: c.OneFileSystem,
		Exclude:       c.Exclude,
	}
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
