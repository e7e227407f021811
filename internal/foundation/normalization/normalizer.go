// Package normalization maps loosely written configuration strings onto enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
	validKeys    []string // sorted, for error messages
}

// NewNormalizer creates a normalizer from valid string->value pairs. Keys are
// matched under Unicode case folding, ignoring surrounding whitespace.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := clean(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)

	return &Normalizer[T]{
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
	}
}

// Normalize returns the matching value, or the default when raw is unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.validValues[clean(raw)]; ok {
		return value
	}
	return n.defaultValue
}

// NormalizeWithError returns the matching value or an error listing the valid keys.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if value, ok := n.validValues[clean(raw)]; ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}

// Default returns the fallback value.
func (n *Normalizer[T]) Default() T {
	return n.defaultValue
}

// ValidKeys returns all valid normalized keys.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

// clean case-folds s. A Caser is stateful, so one is created per call.
func clean(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
