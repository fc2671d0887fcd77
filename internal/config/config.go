// Package config loads and validates the optional .runbot YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for execution configuration.
const (
	DefaultChunkSize      = 256
	DefaultPollTimeout    = 100 * time.Millisecond
	DefaultLocale         = "en_US.UTF-8"
	DefaultFilenamePrefix = "cmd-error"
)

// Config holds the parsed .runbot configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version        int    `yaml:"version"`
	RawChunkSize   int    `yaml:"chunk_size"`   // realtime read size in bytes
	RawPollTimeout string `yaml:"poll_timeout"` // e.g. "100ms"
	RawLocale      string `yaml:"locale"`       // forced LC_ALL for children
	FilenamePrefix string `yaml:"monitoring_filename"`
}

// ChunkSize returns the configured realtime read size or the default.
func (c *Config) ChunkSize() int {
	if c.RawChunkSize > 0 {
		return c.RawChunkSize
	}
	return DefaultChunkSize
}

// PollTimeout returns the configured poll bound or the default.
func (c *Config) PollTimeout() time.Duration {
	if c.RawPollTimeout != "" {
		d, err := time.ParseDuration(c.RawPollTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultPollTimeout
}

// Locale returns the configured child locale or the default.
func (c *Config) Locale() string {
	if c.RawLocale != "" {
		return c.RawLocale
	}
	return DefaultLocale
}

// MonitoringPrefix returns the monitoring snippet filename prefix.
func (c *Config) MonitoringPrefix() string {
	if c.FilenamePrefix != "" {
		return c.FilenamePrefix
	}
	return DefaultFilenamePrefix
}

// LoadResult holds the parsed config and the discovered repository root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing go.mod; falls back to workspace
}

// Load reads the .runbot file from the repository root.
// The repository root is discovered by walking upward from workspace
// looking for go.mod. If no .runbot file exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		// No go.mod found; use workspace as root.
		root = workspace
	}

	path := filepath.Join(root, ".runbot")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, RepoRoot: root}, nil
		}
		return nil, fmt.Errorf("reading .runbot: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing .runbot: %w", err)
	}
	return &LoadResult{Config: cfg, RepoRoot: root}, nil
}

// findRepoRoot walks upward from dir looking for a directory containing go.mod.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
