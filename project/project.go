// Package project loads the test-framework configuration file that
// accompanies a project and exposes the defaults a run falls back to when
// the caller leaves an option unset.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/bundler-infra/specrun/types"
)

// Config is the parsed test-framework configuration.
type Config struct {
	// EntryFile is the bundle entry template, relative to the source root.
	EntryFile string `yaml:"entryFile"`

	// Browsers and Reporters are the framework defaults, used when the
	// run options leave them empty.
	Browsers  []string `yaml:"browsers,omitempty"`
	Reporters []string `yaml:"reporters,omitempty"`

	// SingleRun is the framework default for non-watch runs.
	SingleRun bool `yaml:"singleRun,omitempty"`
}

// defaultEntryFile is assumed when the framework config does not name one.
const defaultEntryFile = "test.ts"

// Load reads and parses the framework config file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("framework config not found at %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read framework config at %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse framework config: %w", err)
	}

	if cfg.EntryFile == "" {
		cfg.EntryFile = defaultEntryFile
	}

	log.Debug("Loaded framework config",
		"path", path,
		"entryFile", cfg.EntryFile,
		"browsers", cfg.Browsers,
		"reporters", cfg.Reporters)

	return &cfg, nil
}

// EntryTemplate resolves the entry template path against the source root.
func (c *Config) EntryTemplate(sourceRoot string) string {
	return filepath.Join(sourceRoot, c.EntryFile)
}

// ApplyDefaults fills unset run options from the framework config. The run
// options stay authoritative wherever the caller set them.
func (c *Config) ApplyDefaults(opts *types.RunOptions) {
	if opts.Browsers == "" && len(c.Browsers) > 0 {
		opts.Browsers = strings.Join(c.Browsers, ",")
	}
	if len(opts.Reporters) == 0 && len(c.Reporters) > 0 {
		opts.Reporters = append([]string(nil), c.Reporters...)
	}
}
