// Package cssrebase rewrites relative URLs in a stylesheet so they keep
// pointing at the same files after the stylesheet moves.
package cssrebase

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Rebaser rewrites a stylesheet that used to live at oldPath so it can be
// served from newPath. Both paths are relative to the same root.
type Rebaser interface {
	Rebase(cssText, oldPath, newPath string) (string, error)
}

// RebaserFunc adapts a function to the Rebaser interface.
type RebaserFunc func(cssText, oldPath, newPath string) (string, error)

// Rebase calls f.
func (f RebaserFunc) Rebase(cssText, oldPath, newPath string) (string, error) {
	return f(cssText, oldPath, newPath)
}

// LexerRebaser is the default Rebaser. It tokenizes the stylesheet and touches
// only url(...) tokens and the string operand of @import, so comments and
// string literals elsewhere are copied verbatim.
type LexerRebaser struct{}

// New returns the default rebaser.
func New() LexerRebaser {
	return LexerRebaser{}
}

// Rebase implements Rebaser.
func (LexerRebaser) Rebase(cssText, oldPath, newPath string) (string, error) {
	oldDir, newDir := path.Dir(oldPath), path.Dir(newPath)
	if oldDir == newDir {
		return cssText, nil
	}

	var out bytes.Buffer
	out.Grow(len(cssText))

	l := css.NewLexer(parse.NewInputString(cssText))
	inImport := false
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != io.EOF {
				return "", fmt.Errorf("lex stylesheet %s: %w", oldPath, err)
			}
			return out.String(), nil
		case css.URLToken:
			out.WriteString(rewriteURLToken(string(data), oldDir, newDir))
			inImport = false
		case css.AtKeywordToken:
			inImport = strings.EqualFold(string(data), "@import")
			out.Write(data)
		case css.StringToken:
			if inImport {
				out.WriteString(rewriteString(string(data), oldDir, newDir))
			} else {
				out.Write(data)
			}
			inImport = false
		case css.WhitespaceToken, css.CommentToken:
			out.Write(data)
		default:
			out.Write(data)
			inImport = false
		}
	}
}

// rewriteURLToken handles url(x), url("x") and url( 'x' ).
func rewriteURLToken(tok, oldDir, newDir string) string {
	open := strings.IndexByte(tok, '(')
	closing := strings.LastIndexByte(tok, ')')
	if open < 0 || closing < open {
		return tok
	}
	inner := tok[open+1 : closing]
	trimmed := strings.TrimSpace(inner)
	lead := inner[:strings.Index(inner, trimmed)]
	trail := inner[len(lead)+len(trimmed):]

	var rebased string
	if len(trimmed) >= 2 && (trimmed[0] == '"' || trimmed[0] == '\'') {
		rebased = rewriteString(trimmed, oldDir, newDir)
	} else {
		rebased = rebaseURL(trimmed, oldDir, newDir)
	}
	return tok[:open+1] + lead + rebased + trail + tok[closing:]
}

// rewriteString handles a quoted string token, keeping its quotes.
func rewriteString(tok, oldDir, newDir string) string {
	if len(tok) < 2 {
		return tok
	}
	quote := tok[0]
	if tok[len(tok)-1] != quote {
		return tok
	}
	return string(quote) + rebaseURL(tok[1:len(tok)-1], oldDir, newDir) + string(quote)
}

// rebaseURL re-expresses a URL relative to oldDir as one relative to newDir.
func rebaseURL(u, oldDir, newDir string) string {
	if !IsRelative(u) {
		return u
	}
	p, suffix := u, ""
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		p, suffix = u[:i], u[i:]
	}
	if p == "" {
		return u
	}
	target := path.Join(oldDir, p)
	rel, err := filepath.Rel(filepath.FromSlash(newDir), filepath.FromSlash(target))
	if err != nil {
		return u
	}
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(rel, "/") {
		rel += "/"
	}
	return rel + suffix
}

// IsRelative reports whether a stylesheet URL is resolved against the
// stylesheet's own location.
func IsRelative(u string) bool {
	switch {
	case u == "":
		return false
	case strings.HasPrefix(u, "/"), strings.HasPrefix(u, "#"):
		return false
	case strings.Contains(u, ":"):
		return false
	}
	return true
}
