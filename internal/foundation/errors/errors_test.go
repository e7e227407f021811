package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "htmlconcat.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "htmlconcat.yaml" {
			t.Errorf("expected context file=htmlconcat.yaml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("transform index.html: %w", NotImplemented("absolute URLs").Build())

		if !HasCategory(err, CategoryUnsupported) {
			t.Error("expected wrapped error to have unsupported category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to default to internal")
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := BuildError("build failed").Build()
		derived := base.WithContext("html_file", "index.html")

		if _, ok := base.Context().Get("html_file"); ok {
			t.Error("expected original context to be untouched")
		}
		if v, _ := derived.Context().GetString("html_file"); v != "index.html" {
			t.Errorf("expected derived context html_file=index.html, got %q", v)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := WrapError(originalErr, CategoryFileSystem, "import failed").
			Warning().
			WithRetry(RetryBackoff).
			WithContext("asset_url", "js/app.js").
			Build()

		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if !err.CanRetry() {
			t.Error("expected backoff error to be retryable")
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryNever},
			{"NotImplemented", NotImplemented("test"), CategoryUnsupported, SeverityFatal, RetryUserAction},
			{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityError, RetryNever},
			{"BuildError", BuildError("test"), CategoryBuild, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContextMerge(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	if v, _ := merged.GetString("key1"); v != "value1" {
		t.Errorf("expected key1=value1, got %s", v)
	}
	if v, _ := merged.GetString("key2"); v != "value2" {
		t.Errorf("expected key2=value2, got %s", v)
	}
	if v, _ := merged.GetString("shared"); v != "overridden" {
		t.Errorf("expected shared=overridden, got %s", v)
	}
}
