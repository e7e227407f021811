package build

import (
	"bytes"
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/htmlconcat/internal/concat"
	"git.home.luguber.info/inful/htmlconcat/internal/config"
	"git.home.luguber.info/inful/htmlconcat/internal/diagnostics"
	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
	"git.home.luguber.info/inful/htmlconcat/internal/metrics"
	"git.home.luguber.info/inful/htmlconcat/internal/observability"
	"git.home.luguber.info/inful/htmlconcat/internal/resolver"
)

// DefaultBuildService is the standard BuildService: it reads the input tree
// from disk and writes the merged results back to disk.
type DefaultBuildService struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	newID    func() string
}

// NewBuildService creates a DefaultBuildService with a noop recorder.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithLogger sets the base logger; slog.Default() is used otherwise.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	s.logger = l
	return s
}

// documentResult is the output slot of one document task.
type documentResult struct {
	results  concat.ResultSet
	warnings []diagnostics.Diagnostic
}

// Run implements BuildService.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	result := &BuildResult{
		Status:    BuildStatusFailed,
		BuildID:   s.newID(),
		StartTime: time.Now(),
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		s.recorder.ObserveBuildDuration(result.Duration)
	}()

	cfg := req.Config
	if cfg == nil {
		return result, errors.ConfigError("build: configuration is required").Build()
	}
	result.OutputPath = cfg.Output

	ctx = observability.WithBuildID(ctx, result.BuildID)
	logger := observability.Logger(ctx, s.logger)

	fsys := os.DirFS(cfg.Input)

	docs, err := discover(observability.WithStage(ctx, observability.StageDiscover), fsys)
	if err != nil {
		return s.fail(result, err, cfg.Input)
	}
	result.Documents = len(docs)
	logger.Info("Discovered input files", logfields.Path(cfg.Input), logfields.FileCount(len(docs)))

	tctx := observability.WithStage(ctx, observability.StageTransform)
	outputs, err := s.transformAll(tctx, cfg, fsys, docs)
	if err != nil {
		return s.fail(result, err, cfg.Input)
	}

	merged, conflicts := merge(docs, outputs)
	result.Conflicts = conflicts
	for _, p := range conflicts {
		logger.Warn("Conflicting output for path; keeping first document's version", logfields.Path(p))
	}
	for _, out := range outputs {
		result.Warnings = append(result.Warnings, out.warnings...)
	}

	if !req.DryRun {
		wctx := observability.WithStage(ctx, observability.StageWrite)
		n, err := writeOutput(wctx, cfg.Output, merged, cfg.Build.Clean, logger)
		result.FilesWritten = n
		s.recorder.SetFilesWritten(n)
		if err != nil {
			return s.fail(result, err, cfg.Output)
		}
	}

	result.Status = BuildStatusSuccess
	if len(result.Warnings) > 0 || len(result.Conflicts) > 0 {
		result.Status = BuildStatusWarning
	}
	logger.Info("Build completed",
		slog.String("status", string(result.Status)),
		logfields.FileCount(result.FilesWritten),
		slog.Int("warnings", len(result.Warnings)),
		logfields.DurationMS(float64(time.Since(result.StartTime).Milliseconds())))
	return result, nil
}

func (s *DefaultBuildService) fail(result *BuildResult, err error, p string) (*BuildResult, error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		result.Status = BuildStatusCancelled
		return result, err
	}
	if _, ok := errors.AsClassified(err); ok {
		return result, err
	}
	return result, errors.WrapError(err, errors.CategoryBuild, "build failed").
		WithContext("path", p).
		Fatal().
		Build()
}

// discover lists every regular file of fsys in lexical order.
func discover(ctx context.Context, fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk input").Fatal().Build()
	}
	return files, nil
}

func (s *DefaultBuildService) transformAll(ctx context.Context, cfg *config.Config, fsys fs.FS, docs []string) ([]documentResult, error) {
	importer := resolver.NewFSImporter(fsys, resolver.WithExtensions(cfg.Concat.InferExtensions...))
	base := concat.Options{
		Importer:     importer,
		DigestLength: cfg.Concat.DigestLength,
		Separator:    cfg.Concat.SeparatorBytes(),
		Concurrency:  cfg.Concat.Concurrency,
		Recorder:     s.recorder,
	}

	outputs := make([]documentResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Build.Concurrency > 0 {
		g.SetLimit(cfg.Build.Concurrency)
	}
	for i, doc := range docs {
		g.Go(func() error {
			dctx := observability.WithDocument(gctx, doc)
			logger := observability.Logger(dctx, s.logger)

			contents, err := fs.ReadFile(fsys, doc)
			if err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "failed to read input file").
					WithContext("path", doc).
					Build()
			}

			collector := &diagnostics.Collector{}
			opts := base
			opts.Diagnostics = diagnostics.Tee(collector, diagnostics.NewLogSink(logger))
			opts.Logger = logger
			t, err := concat.New(opts)
			if err != nil {
				return err
			}

			rs, err := t.Transform(dctx, concat.Document{Path: doc, Contents: contents})
			outputs[i] = documentResult{results: rs, warnings: collector.Diagnostics()}
			if err != nil {
				if ce, ok := errors.AsClassified(err); ok {
					return ce.WithContext("html_file", doc)
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// merge folds per-document result sets in document order. A path produced
// twice with different bytes keeps the first version and is reported.
func merge(docs []string, outputs []documentResult) (concat.ResultSet, []string) {
	merged := concat.ResultSet{}
	seen := map[string]bool{}
	var conflicts []string
	for i := range docs {
		for p, contents := range outputs[i].results {
			existing, ok := merged[p]
			if !ok {
				merged[p] = contents
				continue
			}
			if !bytes.Equal(existing, contents) && !seen[p] {
				seen[p] = true
				conflicts = append(conflicts, p)
			}
		}
	}
	sort.Strings(conflicts)
	return merged, conflicts
}

func writeOutput(ctx context.Context, outDir string, files concat.ResultSet, clean bool, logger *slog.Logger) (int, error) {
	if clean {
		if err := os.RemoveAll(outDir); err != nil {
			return 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				WithContext("path", outDir).
				Build()
		}
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	written := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		rel := filepath.FromSlash(path.Clean(p))
		if !filepath.IsLocal(rel) {
			logger.Warn("Skipping output path outside output directory", logfields.Path(p))
			continue
		}
		dst := filepath.Join(outDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
				WithContext("path", filepath.Dir(dst)).
				Build()
		}
		// #nosec G306 -- site output is meant to be world-readable
		if err := os.WriteFile(dst, files[p], 0o644); err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
				WithContext("path", dst).
				Build()
		}
		written++
	}
	logger.Debug("Wrote output files", logfields.Path(outDir), logfields.FileCount(written))
	return written, nil
}
