package config

import "time"

const (
	DefaultInput            = "src"
	DefaultOutput           = "dist"
	DefaultSeparator        = ";"
	DefaultDigestLength     = 5
	DefaultBuildConcurrency = 4
	DefaultWatchDebounce    = "300ms"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero values. It runs after normalization so canonical
// values drive the defaults.
func applyDefaults(cfg *Config) {
	if cfg.Input == "" {
		cfg.Input = DefaultInput
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.Concat.Separator == nil {
		sep := DefaultSeparator
		cfg.Concat.Separator = &sep
	}
	if cfg.Concat.DigestLength == 0 {
		cfg.Concat.DigestLength = DefaultDigestLength
	}
	if cfg.Build.Concurrency == 0 {
		cfg.Build.Concurrency = DefaultBuildConcurrency
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}

// DebounceDuration parses watch.debounce. Validation guarantees it parses
// for loaded configs.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultWatchDebounce)
	}
	return d
}
