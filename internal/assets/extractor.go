package assets

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor is the default Extractor. It recognises external scripts
// (<script src="..."></script> with no inline body) and stylesheet links
// (<link rel="stylesheet" href="...">). Any other markup, non-blank text, or a
// change of asset type ends the current group.
type HTMLExtractor struct{}

// NewHTMLExtractor returns the default extractor.
func NewHTMLExtractor() HTMLExtractor {
	return HTMLExtractor{}
}

// Extract implements Extractor.
func (HTMLExtractor) Extract(doc string) []Group {
	z := html.NewTokenizer(strings.NewReader(doc))
	s := &scanner{z: z, doc: doc}
	return s.run()
}

type scanner struct {
	z       *html.Tokenizer
	doc     string
	offset  int
	groups  []Group
	current Group
}

// next advances the tokenizer and returns the token type with the byte span it covered.
func (s *scanner) next() (html.TokenType, int, int) {
	tt := s.z.Next()
	start := s.offset
	s.offset += len(s.z.Raw())
	return tt, start, s.offset
}

func (s *scanner) flush() {
	if len(s.current) > 0 {
		s.groups = append(s.groups, s.current)
		s.current = nil
	}
}

func (s *scanner) add(ref Reference) {
	if len(s.current) > 0 && s.current.Type() != ref.Type {
		s.flush()
	}
	ref.Tag = s.doc[ref.Start:ref.End]
	s.current = append(s.current, ref)
}

func (s *scanner) run() []Group {
	for {
		tt, start, end := s.next()
		switch tt {
		case html.ErrorToken:
			s.flush()
			return s.groups
		case html.TextToken:
			if isBlank(s.doc[start:end]) {
				continue
			}
			s.flush()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := s.z.Token()
			switch tok.Data {
			case "script":
				s.script(tok, start)
			case "link":
				href, ok := stylesheetHref(tok)
				if !ok {
					s.flush()
					continue
				}
				s.add(Reference{URL: href, Start: start, End: end, Type: TypeStylesheet})
			default:
				s.flush()
			}
		default:
			s.flush()
		}
	}
}

// script consumes the raw body and closing tag of a <script> element.
func (s *scanner) script(tok html.Token, start int) {
	src := attr(tok, "src")
	if src == "" {
		// inline script; its body and end tag break the group in run()
		s.flush()
		return
	}
	inline := false
	for {
		tt, from, to := s.next()
		switch tt {
		case html.TextToken:
			if !isBlank(s.doc[from:to]) {
				inline = true
			}
		case html.EndTagToken:
			if name, _ := s.z.TagName(); string(name) == "script" && !inline {
				s.add(Reference{URL: src, Start: start, End: to, Type: TypeScript})
				return
			}
			s.flush()
			return
		default:
			// unterminated script at EOF; the next call in run() sees ErrorToken again
			s.flush()
			return
		}
	}
}

func stylesheetHref(tok html.Token) (string, bool) {
	href := attr(tok, "href")
	if href == "" {
		return "", false
	}
	for _, rel := range strings.Fields(attr(tok, "rel")) {
		if strings.EqualFold(rel, "stylesheet") {
			return href, true
		}
	}
	return "", false
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
