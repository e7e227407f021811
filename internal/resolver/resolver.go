// Package resolver loads asset files on behalf of the transform.
//
// The transform only knows virtual, slash-separated paths. An Importer maps
// such a path to contents and reports the canonical path it actually read,
// which may differ from the request (for example when an extension is
// inferred). A missing file or a directory is reported as ErrNotFound so the
// caller can degrade gracefully; every other failure is a hard error.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ErrNotFound is returned (possibly wrapped) when an asset does not exist or
// names a directory.
var ErrNotFound = errors.New("asset not found")

// File is a loaded asset.
type File struct {
	Path     string
	Contents []byte
}

// Importer resolves a virtual path to its contents.
type Importer interface {
	Import(ctx context.Context, name string) (File, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(ctx context.Context, name string) (File, error)

// Import calls f(ctx, name).
func (f ImporterFunc) Import(ctx context.Context, name string) (File, error) {
	return f(ctx, name)
}

// FSImporter reads assets from an fs.FS. When a requested path does not exist
// it retries with each of the configured extensions appended.
type FSImporter struct {
	fsys       fs.FS
	extensions []string
}

// Option configures an FSImporter.
type Option func(*FSImporter)

// WithExtensions enables extension inference, e.g. WithExtensions(".js", ".css").
func WithExtensions(exts ...string) Option {
	return func(i *FSImporter) {
		i.extensions = append(i.extensions, exts...)
	}
}

// NewFSImporter returns an importer reading from fsys.
func NewFSImporter(fsys fs.FS, opts ...Option) *FSImporter {
	i := &FSImporter{fsys: fsys}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import implements Importer.
func (i *FSImporter) Import(ctx context.Context, name string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if !fs.ValidPath(name) {
		return File{}, fmt.Errorf("%w: %s is outside the source tree", ErrNotFound, name)
	}

	candidates := []string{name}
	for _, ext := range i.extensions {
		if path.Ext(name) != ext {
			candidates = append(candidates, name+ext)
		}
	}

	for _, candidate := range candidates {
		f, err := i.read(candidate)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return f, err
	}
	return File{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (i *FSImporter) read(name string) (File, error) {
	info, err := fs.Stat(i.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return File{}, ErrNotFound
	}
	data, err := fs.ReadFile(i.fsys, name)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", name, err)
	}
	return File{Path: name, Contents: data}, nil
}
