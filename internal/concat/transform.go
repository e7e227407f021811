package concat

import (
	"context"
	"log/slog"
	"path"
	"time"

	"git.home.luguber.info/inful/htmlconcat/internal/assets"
	"git.home.luguber.info/inful/htmlconcat/internal/cssrebase"
	"git.home.luguber.info/inful/htmlconcat/internal/diagnostics"
	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/metrics"
	"git.home.luguber.info/inful/htmlconcat/internal/resolver"
)

const (
	// DefaultSeparator is inserted between consecutive scripts of a bundle.
	DefaultSeparator = ";"
	// DefaultDigestLength is the number of hex digits used in bundle names.
	DefaultDigestLength = 5
)

// Document is one input file of the host pipeline. Path is a slash-separated
// virtual path; assets are resolved relative to its directory.
type Document struct {
	Path     string
	Contents []byte
}

// ResultSet maps output paths to file contents.
type ResultSet map[string][]byte

// Options wires the transform's collaborators. Only Importer is required.
type Options struct {
	Importer     resolver.Importer
	Extractor    assets.Extractor
	Rebaser      cssrebase.Rebaser
	Digest       DigestFunc
	DigestLength int
	Separator    []byte
	// Concurrency bounds in-flight imports per document; zero means unbounded.
	Concurrency int
	Diagnostics diagnostics.Sink
	Recorder    metrics.Recorder
	Logger      *slog.Logger
}

// Transformer runs the concatenation transform with a fixed set of collaborators.
type Transformer struct {
	opts Options
}

// New validates opts, fills in defaults and returns a Transformer.
func New(opts Options) (*Transformer, error) {
	if opts.Importer == nil {
		return nil, errors.ConfigError("concat: an importer is required").Build()
	}
	if opts.Extractor == nil {
		opts.Extractor = assets.NewHTMLExtractor()
	}
	if opts.Rebaser == nil {
		opts.Rebaser = cssrebase.New()
	}
	if opts.Digest == nil {
		opts.Digest = MD5Hex
	}
	if opts.DigestLength == 0 {
		opts.DigestLength = DefaultDigestLength
	}
	if opts.DigestLength < 0 {
		return nil, errors.ConfigError("concat: digest length must be positive").
			WithContext("digest_length", opts.DigestLength).
			Build()
	}
	if opts.Separator == nil {
		opts.Separator = []byte(DefaultSeparator)
	}
	if opts.Concurrency < 0 {
		opts.Concurrency = 0
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostics.Discard
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Transformer{opts: opts}, nil
}

// Transform dispatches on the document's extension. Stylesheets and scripts
// yield (nil, nil) so the host drops them; HTML is concatenated; everything
// else is passed through unchanged.
func (t *Transformer) Transform(ctx context.Context, doc Document) (ResultSet, error) {
	ext := path.Ext(doc.Path)
	start := time.Now()
	defer func() {
		t.opts.Recorder.ObserveTransformDuration(ext, time.Since(start))
	}()

	switch ext {
	case ".css", ".js":
		t.opts.Recorder.IncDocument(metrics.ResultSkipped)
		return nil, nil
	case ".html":
		results, missing, err := t.transformHTML(ctx, doc)
		switch {
		case err != nil:
			t.opts.Recorder.IncDocument(metrics.ResultFailed)
		case missing > 0:
			t.opts.Recorder.IncDocument(metrics.ResultWarning)
		default:
			t.opts.Recorder.IncDocument(metrics.ResultSuccess)
		}
		return results, err
	default:
		t.opts.Recorder.IncDocument(metrics.ResultPassthrough)
		return ResultSet{doc.Path: doc.Contents}, nil
	}
}

func (t *Transformer) transformHTML(ctx context.Context, doc Document) (ResultSet, int, error) {
	html := string(doc.Contents)
	groups := t.opts.Extractor.Extract(html)

	resolved, err := t.resolveGroups(ctx, doc.Path, groups)
	missing := t.reportMissing(doc.Path, html, resolved)
	if err != nil {
		return nil, missing, err
	}

	results, err := t.assemble(doc.Path, html, groups, resolved)
	if err != nil {
		return nil, missing, err
	}
	return results, missing, nil
}
