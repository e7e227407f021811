// Package config loads and validates the htmlconcat YAML configuration.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
)

// CurrentVersion is the only configuration version understood by Load.
const CurrentVersion = "1.0"

// Config is the root configuration document.
type Config struct {
	Version string        `yaml:"version"`
	Input   string        `yaml:"input"`
	Output  string        `yaml:"output"`
	Concat  ConcatConfig  `yaml:"concat"`
	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ConcatConfig tunes the per-document transform.
type ConcatConfig struct {
	// Separator is written between concatenated scripts. A nil value means
	// the default; an explicit empty string disables the separator.
	Separator    *string `yaml:"separator,omitempty"`
	DigestLength int     `yaml:"digest_length"`
	// Concurrency bounds asset resolution within one document; 0 is unbounded.
	Concurrency int `yaml:"concurrency"`
	// InferExtensions lists suffixes the importer tries when a URL has none.
	InferExtensions []string `yaml:"infer_extensions,omitempty"`
}

// BuildConfig controls the site build.
type BuildConfig struct {
	Concurrency int  `yaml:"concurrency"` // documents processed in parallel
	Clean       bool `yaml:"clean"`       // remove output before building
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls the Prometheus text-file export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// SeparatorBytes returns the configured script separator.
func (c ConcatConfig) SeparatorBytes() []byte {
	if c.Separator == nil {
		return []byte(DefaultSeparator)
	}
	return []byte(*c.Separator)
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
// A .env or .env.local next to the file is loaded first so ${VAR} references resolve.
func Load(configPath string) (*Config, error) {
	if envPath, err := loadEnvFile(filepath.Dir(configPath)); err != nil {
		slog.Warn("Failed to load env file", logfields.Error(err))
	} else if envPath != "" {
		slog.Debug("Loaded environment variables", logfields.Path(envPath))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "configuration file not found").
				WithContext("path", configPath).
				UserAction().
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration bytes after expanding environment variables.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").
			UserAction().
			Fatal().
			Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)).
			WithContext("version", cfg.Version).
			Build()
	}

	res := NormalizeConfig(&cfg)
	for _, w := range res.Warnings {
		slog.Warn("Configuration normalized", slog.String("detail", w))
	}

	applyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Metrics.Textfile = ""
	example.Concat.InferExtensions = []string{".js", ".css"}

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create config directory").
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
