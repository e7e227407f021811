package concat

import (
	"strings"

	"git.home.luguber.info/inful/htmlconcat/internal/assets"
	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
)

// assemble splices the document in one left-to-right pass. Non-local groups
// are skipped, so their text is copied through with the next gap. Singletons
// keep their original tag bytes; multi-member groups are replaced by the
// bundle tag spanning from the first member's start to the last member's end.
func (t *Transformer) assemble(htmlPath, html string, groups []assets.Group, resolved [][]ResolvedAsset) (ResultSet, error) {
	results := make(ResultSet)
	// owners maps each emitted path to what produced it: a bundle's member
	// key, or the asset path for a singleton.
	owners := make(map[string]string)

	var out strings.Builder
	out.Grow(len(html))
	lastIndex := 0

	for gi, group := range groups {
		members := resolved[gi]
		if members == nil {
			continue
		}
		if group.Start() < lastIndex || group.End() > len(html) {
			return nil, errors.InternalError("bug: asset groups overlap or exceed the document").
				WithContext(logfields.KeyHTMLFile, htmlPath).
				WithContext(logfields.KeyGroupIndex, gi).
				Build()
		}

		out.WriteString(html[lastIndex:group.Start()])

		if len(members) > 1 {
			bundle, err := t.concatenate(htmlPath, members)
			if err != nil {
				return nil, err
			}
			if err := claim(owners, htmlPath, bundle.Path, "bundle:"+bundle.Key); err != nil {
				return nil, err
			}
			results[bundle.Path] = bundle.Contents
			out.WriteString(bundle.Tag)

			t.opts.Recorder.IncBundle(string(bundle.Type), len(members))
			t.opts.Logger.Debug("Concatenated asset group",
				logfields.HTMLFile(htmlPath),
				logfields.BundlePath(bundle.Path),
				logfields.GroupIndex(gi),
				logfields.GroupSize(len(members)))
		} else {
			asset := members[0]
			if err := claim(owners, htmlPath, asset.RealPath, "asset:"+asset.RealPath); err != nil {
				return nil, err
			}
			results[asset.RealPath] = asset.Contents
			out.WriteString(html[asset.Start:asset.End])
		}

		lastIndex = group.End()
	}

	out.WriteString(html[lastIndex:])
	results[htmlPath] = []byte(out.String())
	return results, nil
}

// claim records owner as the producer of p. A path already produced by a
// different owner is a naming collision.
func claim(owners map[string]string, htmlPath, p, owner string) error {
	if prev, ok := owners[p]; ok && prev != owner {
		return errors.ValidationError("two asset groups map to the same output path").
			WithContext(logfields.KeyHTMLFile, htmlPath).
			WithContext(logfields.KeyBundlePath, p).
			WithContext("first_owner", prev).
			WithContext("second_owner", owner).
			Build()
	}
	owners[p] = owner
	return nil
}
