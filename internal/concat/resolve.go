package concat

import (
	"context"
	stderrors "errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/htmlconcat/internal/assets"
	"git.home.luguber.info/inful/htmlconcat/internal/diagnostics"
	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
	"git.home.luguber.info/inful/htmlconcat/internal/resolver"
)

// ResolvedAsset is a Reference enriched with what the importer returned.
type ResolvedAsset struct {
	assets.Reference
	Contents []byte
	// RealPath is the importer's canonical path, or the computed path when missing.
	RealPath string
	// RealPathRelative is RealPath relative to the document's directory.
	RealPathRelative string
	Missing          bool
}

// resolveGroups imports every member of every local group. The result is
// parallel to groups; non-local groups have a nil entry. Each task writes its
// own slot, so no locking is needed, and Wait is the only join point.
func (t *Transformer) resolveGroups(ctx context.Context, htmlPath string, groups []assets.Group) ([][]ResolvedAsset, error) {
	baseDir := path.Dir(htmlPath)
	resolved := make([][]ResolvedAsset, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	if t.opts.Concurrency > 0 {
		g.SetLimit(t.opts.Concurrency)
	}
	for gi, group := range groups {
		if len(group) == 0 || !IsLocalURL(group[0].URL) {
			continue
		}
		resolved[gi] = make([]ResolvedAsset, len(group))
		for mi, ref := range group {
			g.Go(func() error {
				asset, err := t.resolveAsset(gctx, htmlPath, baseDir, ref)
				if err != nil {
					return err
				}
				resolved[gi][mi] = asset
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return resolved, err
	}
	return resolved, nil
}

func (t *Transformer) resolveAsset(ctx context.Context, htmlPath, baseDir string, ref assets.Reference) (ResolvedAsset, error) {
	if strings.HasPrefix(ref.URL, "/") {
		return ResolvedAsset{}, errors.NotImplemented("absolute asset URLs are not supported").
			WithContext(logfields.KeyAssetURL, ref.URL).
			WithContext(logfields.KeyHTMLFile, htmlPath).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return ResolvedAsset{}, err
	}

	computed := path.Join(baseDir, path.Clean(ref.URL))
	file, err := t.opts.Importer.Import(ctx, computed)
	switch {
	case err == nil:
		return ResolvedAsset{
			Reference:        ref,
			Contents:         file.Contents,
			RealPath:         file.Path,
			RealPathRelative: relPath(baseDir, file.Path),
		}, nil
	case stderrors.Is(err, resolver.ErrNotFound):
		return ResolvedAsset{
			Reference:        ref,
			Contents:         []byte{},
			RealPath:         computed,
			RealPathRelative: relPath(baseDir, computed),
			Missing:          true,
		}, nil
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return ResolvedAsset{}, err
	default:
		return ResolvedAsset{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to import asset").
			WithContext(logfields.KeyAssetURL, ref.URL).
			WithContext(logfields.KeyAssetPath, computed).
			WithContext(logfields.KeyHTMLFile, htmlPath).
			Build()
	}
}

// reportMissing emits one warning per missing asset in document order and
// returns how many there were. Slots left empty by an aborted resolution are
// skipped.
func (t *Transformer) reportMissing(htmlPath, html string, resolved [][]ResolvedAsset) int {
	count := 0
	for _, members := range resolved {
		for _, a := range members {
			if !a.Missing {
				continue
			}
			count++
			line, column := diagnostics.Position(html, a.Start)
			t.opts.Diagnostics.Emit(diagnostics.Diagnostic{
				Kind:     diagnostics.KindWarning,
				Message:  fmt.Sprintf("Missing file \"%s\" will not be included in concatenation", a.RealPathRelative),
				File:     htmlPath,
				Contents: html,
				Line:     line,
				Column:   column,
			})
			t.opts.Recorder.IncMissingAsset()
		}
	}
	return count
}

// relPath returns target relative to base, both slash-separated.
func relPath(base, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(base), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
