package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
)

const maxDigestLength = 32

// ValidateConfig checks a normalized, defaulted configuration.
func ValidateConfig(cfg *Config) error {
	if err := validatePaths(cfg); err != nil {
		return err
	}
	if err := validateConcat(&cfg.Concat); err != nil {
		return err
	}
	if cfg.Build.Concurrency < 0 {
		return fieldError("build.concurrency", "must not be negative", cfg.Build.Concurrency)
	}
	if d, err := time.ParseDuration(cfg.Watch.Debounce); err != nil || d <= 0 {
		return fieldError("watch.debounce", "must be a positive duration", cfg.Watch.Debounce)
	}
	return nil
}

func validatePaths(cfg *Config) error {
	in, err := filepath.Abs(cfg.Input)
	if err != nil {
		return fieldError("input", err.Error(), cfg.Input)
	}
	out, err := filepath.Abs(cfg.Output)
	if err != nil {
		return fieldError("output", err.Error(), cfg.Output)
	}
	if in == out {
		return fieldError("output", "must differ from input", cfg.Output)
	}
	// Writing into the input tree would feed bundles back into the next build.
	if rel, err := filepath.Rel(in, out); err == nil && filepath.IsLocal(rel) {
		return fieldError("output", "must not be inside input", cfg.Output)
	}
	if rel, err := filepath.Rel(out, in); err == nil && filepath.IsLocal(rel) && cfg.Build.Clean {
		return fieldError("build.clean", "cannot clean an output directory that contains input", cfg.Output)
	}
	return nil
}

func validateConcat(c *ConcatConfig) error {
	if c.DigestLength < 1 || c.DigestLength > maxDigestLength {
		return fieldError("concat.digest_length", fmt.Sprintf("must be between 1 and %d", maxDigestLength), c.DigestLength)
	}
	if c.Concurrency < 0 {
		return fieldError("concat.concurrency", "must not be negative", c.Concurrency)
	}
	for _, ext := range c.InferExtensions {
		if ext == "" || strings.ContainsAny(ext, `/\`) {
			return fieldError("concat.infer_extensions", "entries must be plain file suffixes", ext)
		}
	}
	return nil
}

func fieldError(field, msg string, value any) error {
	return errors.ConfigError(field+" "+msg).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
