// Package config handles loading compiler configuration from files.
//
// Configuration is a YAML file named weslc.yaml, .weslc.yaml or .weslrc.
// The config file is searched for in the given directory and its parents.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"codeberg.org/saruga/weslc/internal/compiler"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// Features sets feature flags for @if attributes.
	Features map[string]bool `yaml:"features,omitempty"`

	// Keep lists @const functions that lowering never removes.
	Keep []string `yaml:"keep,omitempty"`

	// Strict makes feature flags missing from Features an error.
	Strict *bool `yaml:"strict,omitempty"`

	// Lower runs the lowering pass (default true).
	Lower *bool `yaml:"lower,omitempty"`

	// Minify removes unnecessary whitespace and newlines.
	Minify *bool `yaml:"minify,omitempty"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"weslc.yaml",
	".weslc.yaml",
	".weslrc",
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path. Unknown fields
// are an error; an empty file is an empty configuration.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &cfg, nil
}

// ToOptions converts a Config to compiler.Options, using defaults for unset fields.
func (c *Config) ToOptions() compiler.Options {
	opts := compiler.DefaultOptions()
	if c == nil {
		return opts
	}

	if len(c.Features) > 0 {
		opts.Features = make(map[string]bool, len(c.Features))
		for name, v := range c.Features {
			opts.Features[name] = v
		}
	}
	if c.Strict != nil {
		opts.StrictFeatures = *c.Strict
	}
	if c.Lower != nil {
		opts.Lower = *c.Lower
	}
	if c.Minify != nil {
		opts.MinifyWhitespace = *c.Minify
	}
	opts.Keep = slices.Clone(c.Keep)
	return opts
}

// MergeOptions holds the CLI flags that override a config file.
type MergeOptions struct {
	// Features are "name", "name=true" or "name=false"; a bare name is true.
	Features []string
	Keep     []string
	Strict   bool
	NoLower  bool
	Minify   bool
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified. A nil Config
// merges onto the defaults.
func (c *Config) Merge(cli MergeOptions) (compiler.Options, error) {
	opts := c.ToOptions()

	for _, f := range cli.Features {
		name, value, err := ParseFeature(f)
		if err != nil {
			return opts, err
		}
		if opts.Features == nil {
			opts.Features = make(map[string]bool)
		}
		opts.Features[name] = value
	}
	if cli.Strict {
		opts.StrictFeatures = true
	}
	if cli.NoLower {
		opts.Lower = false
	}
	if cli.Minify {
		opts.MinifyWhitespace = true
	}
	if len(cli.Keep) > 0 {
		// Append CLI keep names to config keep names
		opts.Keep = append(opts.Keep, cli.Keep...)
	}
	return opts, nil
}

// ParseFeature parses a feature flag setting of the form name[=bool].
func ParseFeature(s string) (name string, value bool, err error) {
	name, raw, hasValue := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, errors.Errorf("feature %q has no name", s)
	}
	if !hasValue {
		return name, true, nil
	}
	value, err = strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return "", false, errors.Errorf("feature %q: value must be true or false", s)
	}
	return name, value, nil
}
