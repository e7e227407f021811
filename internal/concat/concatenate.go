package concat

import (
	"bytes"
	"crypto/md5" //nolint:gosec // naming only, not security
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/htmlconcat/internal/assets"
	"git.home.luguber.info/inful/htmlconcat/internal/foundation/errors"
	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
)

// DigestFunc returns a deterministic hex digest of data.
type DigestFunc func(data []byte) string

// MD5Hex is the default DigestFunc.
func MD5Hex(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Bundle is the concatenation of a multi-member group.
type Bundle struct {
	Type assets.Type
	// Path is the bundle's output path (document directory + file name).
	Path string
	// Relative is Path relative to the document's directory.
	Relative string
	Contents []byte
	Tag      string
	// Key identifies the ordered member list the name was derived from.
	Key string
}

// BundleName derives the content-addressed file name for an ordered list of
// member paths. Reordering the members changes the name.
func BundleName(memberPaths []string, typ assets.Type, digest DigestFunc, length int) (string, error) {
	sum := digest([]byte(strings.Join(memberPaths, "\n")))
	if length <= 0 || length > len(sum) {
		return "", errors.ConfigError("digest length exceeds digest size").
			WithContext("digest_length", length).
			WithContext("digest_size", len(sum)).
			Build()
	}
	return "concat-" + sum[:length] + typ.Extension(), nil
}

// concatenate merges a resolved group of two or more members.
func (t *Transformer) concatenate(htmlPath string, members []ResolvedAsset) (Bundle, error) {
	typ := members[0].Type
	if typ != assets.TypeScript && typ != assets.TypeStylesheet {
		return Bundle{}, errors.InternalError("bug: concatenatable group has unknown asset type").
			WithContext(logfields.KeyAssetType, string(typ)).
			WithContext(logfields.KeyHTMLFile, htmlPath).
			Build()
	}

	baseDir := path.Dir(htmlPath)
	memberPaths := make([]string, len(members))
	for i, m := range members {
		memberPaths[i] = m.RealPathRelative
	}
	name, err := BundleName(memberPaths, typ, t.opts.Digest, t.opts.DigestLength)
	if err != nil {
		return Bundle{}, err
	}
	bundlePath := path.Join(baseDir, name)
	relative := relPath(baseDir, bundlePath)

	var buf bytes.Buffer
	for i, m := range members {
		switch typ {
		case assets.TypeScript:
			if i > 0 {
				buf.Write(t.opts.Separator)
			}
			buf.Write(m.Contents)
		case assets.TypeStylesheet:
			contents := m.Contents
			if path.Dir(m.RealPathRelative) != path.Dir(relative) {
				css, err := t.opts.Rebaser.Rebase(string(contents), m.RealPathRelative, relative)
				if err != nil {
					return Bundle{}, errors.WrapError(err, errors.CategoryAsset, "failed to rebase stylesheet").
						Fatal().
						WithContext(logfields.KeyAssetPath, m.RealPath).
						WithContext(logfields.KeyHTMLFile, htmlPath).
						Build()
				}
				contents = []byte(css)
			}
			buf.Write(contents)
		}
	}

	url := path.Clean(relative)
	var tag string
	if typ == assets.TypeScript {
		tag = fmt.Sprintf(`<script src="%s"></script>`, url)
	} else {
		tag = fmt.Sprintf(`<link rel="stylesheet" href="%s">`, url)
	}

	return Bundle{
		Type:     typ,
		Path:     bundlePath,
		Relative: relative,
		Contents: buf.Bytes(),
		Tag:      tag,
		Key:      strings.Join(memberPaths, "\n"),
	}, nil
}
