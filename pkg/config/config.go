// Package config loads classcleaner settings from TOML, YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all classcleaner configuration.
type Config struct {
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`
	Exclude  ExcludeConfig  `koanf:"exclude" toml:"exclude"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
	Watch    WatchConfig    `koanf:"watch" toml:"watch"`
}

// AnalysisConfig controls indexing and correlation.
type AnalysisConfig struct {
	// Workers is the parse pool size; 0 means 2x NumCPU.
	Workers int `koanf:"workers" toml:"workers"`
	// StrictReceiver only counts a call for a declaration when the call's
	// receiver hint, if any, names the declaration's container.
	StrictReceiver bool `koanf:"strict_receiver" toml:"strict_receiver"`
	// MaxFileSize skips larger files, in bytes. 0 disables the limit.
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size"`
	// IncludeClosures lists closures in reports. They are always indexed.
	IncludeClosures bool `koanf:"include_closures" toml:"include_closures"`
}

// ExcludeConfig controls which files are skipped during discovery.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color  bool   `koanf:"color" toml:"color"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMS int `koanf:"debounce_ms" toml:"debounce_ms"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "markdown", "toon", "yaml"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxFileSize:     2 << 20,
			IncludeClosures: true,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.generated.swift",
				"R.generated.swift",
			},
			Dirs: []string{
				".build",
				"build",
				"DerivedData",
				"Pods",
				"Carthage",
				".git",
				".swiftpm",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Watch: WatchConfig{
			DebounceMS: 300,
		},
	}
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	var errs []error
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be >= 0, got %d", c.Analysis.Workers))
	}
	if c.Analysis.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_file_size must be >= 0, got %d", c.Analysis.MaxFileSize))
	}
	if !validFormat(c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of %s, got %q", strings.Join(Formats, ", "), c.Output.Format))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS))
	}
	return errors.Join(errs...)
}

func validFormat(f string) bool {
	for _, ok := range Formats {
		if f == ok {
			return true
		}
	}
	return false
}

// Load reads a config file over the defaults. The parser is chosen by file
// extension, TOML when unknown.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// LoadResult is a loaded configuration and the file it came from. Source is
// empty when the defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
	dirs []string
}

// WithPath loads exactly this file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs replaces the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

var configNames = []string{
	"classcleaner.toml",
	"classcleaner.yaml",
	"classcleaner.yml",
	"classcleaner.json",
	".classcleaner.toml",
	".classcleaner.yaml",
	".classcleaner.yml",
	".classcleaner.json",
}

// LoadConfig loads the explicit path if given, otherwise the first config
// file found in the search directories, otherwise the defaults. A file that
// exists but fails to load is an error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: []string{".", ".classcleaner"}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	for _, dir := range o.dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}
	return &LoadResult{Config: DefaultConfig()}, nil
}

// ShouldExclude reports whether a path, relative to the scan root, falls in
// an excluded directory or matches an excluded file pattern.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) || path == dir {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
