// Package errors provides the classified error primitives used across htmlconcat.
//
// A ClassifiedError carries a category, a severity, a retry hint and a context
// map, and is created through the fluent ErrorBuilder:
//
//	err := errors.NewError(errors.CategoryFileSystem, "failed to import asset").
//		WithContext("asset_url", ref.URL).
//		WithCause(ioErr).
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
