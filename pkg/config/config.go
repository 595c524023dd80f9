package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for sweep.
type Config struct {
	// Declarations kept regardless of references
	Retention RetentionConfig `koanf:"retention" toml:"retention"`

	// Which classification passes run
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// What is left out of the report
	Report ReportConfig `koanf:"report" toml:"report"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// RetentionConfig controls the reachability roots.
type RetentionConfig struct {
	Public                bool     `koanf:"public" toml:"public"`
	ObjcAccessible        bool     `koanf:"objc_accessible" toml:"objc_accessible"`
	AssignOnlyProperties  bool     `koanf:"assign_only_properties" toml:"assign_only_properties"`
	Attributes            []string `koanf:"attributes" toml:"attributes"`
	Modifiers             []string `koanf:"modifiers" toml:"modifiers"`
	Names                 []string `koanf:"names" toml:"names"`
	UnusedImportedModules []string `koanf:"unused_imported_modules" toml:"unused_imported_modules"`
}

// AnalysisConfig controls which passes run.
type AnalysisConfig struct {
	AssignOnly        bool `koanf:"assign_only" toml:"assign_only"`
	RedundantProtocol bool `koanf:"redundant_protocol" toml:"redundant_protocol"`
	RedundantPublic   bool `koanf:"redundant_public" toml:"redundant_public"`
	UnusedImports     bool `koanf:"unused_imports" toml:"unused_imports"`
	Workers           int  `koanf:"workers" toml:"workers"` // 0 = 2x NumCPU
}

// ReportConfig defines file exclusion patterns. Declarations in excluded files
// are ignored: never reported, but still retained.
type ReportConfig struct {
	Exclude   []string `koanf:"exclude" toml:"exclude"` // gitignore syntax
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
	Root      string   `koanf:"root" toml:"root"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // xcode, text, csv, json, checkstyle, toon, markdown
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// Formats lists the accepted output.format values.
var Formats = []string{"xcode", "text", "csv", "json", "checkstyle", "toon", "markdown"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Retention: RetentionConfig{
			Public:               false,
			ObjcAccessible:       false,
			AssignOnlyProperties: false,
		},
		Analysis: AnalysisConfig{
			AssignOnly:        true,
			RedundantProtocol: true,
			RedundantPublic:   true,
			UnusedImports:     true,
		},
		Report: ReportConfig{
			Gitignore: false,
			Root:      ".",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".sweep/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configNames are the file names searched for, in order.
var configNames = []string{
	"sweep.toml",
	"sweep.yaml",
	"sweep.yml",
	"sweep.json",
	".sweep.toml",
	".sweep.yaml",
	".sweep.yml",
	".sweep.json",
}

// searchDirs are the directories searched for config files, in order.
var searchDirs = []string{".", ".sweep"}

// Find returns the first config file in the standard locations, or "".
func Find() string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if p := Find(); p != "" {
		if cfg, err := Load(p); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is empty when no file was found and defaults apply.
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath loads the given file instead of searching the standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadConfig loads and validates configuration. Unlike LoadOrDefault it reports
// unreadable or invalid files.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	source := o.path
	if source == "" {
		source = Find()
	}
	if source == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(source)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", source, err)
	}
	return &LoadResult{Config: cfg, Source: source}, nil
}

// Validate reports every invalid value in the configuration.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q (want one of %s)",
			c.Output.Format, strings.Join(Formats, ", ")))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers: must not be negative, got %d", c.Analysis.Workers))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl: must not be negative, got %d", c.Cache.TTL))
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir: required when the cache is enabled"))
	}
	for _, p := range c.Retention.Names {
		if _, err := path.Match(p, ""); err != nil {
			errs = append(errs, fmt.Errorf("retention.names: bad pattern %q: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
