package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NormalizationResult collects non-fatal adjustments made to a config.
type NormalizationResult struct {
	Warnings []string
}

func (r *NormalizationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// NormalizeConfig case-folds enumerations and cleans paths in place.
// Unknown enum values fall back to their defaults with a warning.
func NormalizeConfig(cfg *Config) *NormalizationResult {
	res := &NormalizationResult{}

	if raw := string(cfg.Logging.Level); raw != "" {
		lvl, err := logLevelNormalizer.NormalizeWithError(raw)
		if err != nil {
			lvl = logLevelNormalizer.Default()
			res.warnf("logging.level: %v; using %s", err, lvl)
		} else if string(lvl) != raw {
			res.warnf("logging.level normalized from %q to %q", raw, lvl)
		}
		cfg.Logging.Level = lvl
	}

	if raw := string(cfg.Logging.Format); raw != "" {
		f, err := logFormatNormalizer.NormalizeWithError(raw)
		if err != nil {
			f = logFormatNormalizer.Default()
			res.warnf("logging.format: %v; using %s", err, f)
		} else if string(f) != raw {
			res.warnf("logging.format normalized from %q to %q", raw, f)
		}
		cfg.Logging.Format = f
	}

	cfg.Input = cleanPath(cfg.Input)
	cfg.Output = cleanPath(cfg.Output)

	for i, ext := range cfg.Concat.InferExtensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			res.warnf("concat.infer_extensions[%d]: %q is missing its leading dot", i, ext)
			ext = "." + ext
		}
		cfg.Concat.InferExtensions[i] = ext
	}

	return res
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
