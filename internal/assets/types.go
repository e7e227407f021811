package assets

// Type is the kind of asset a reference points at.
type Type string

const (
	TypeScript     Type = "script"
	TypeStylesheet Type = "stylesheet"
)

// Extension returns the file extension used for bundles of this type.
func (t Type) Extension() string {
	if t == TypeScript {
		return ".js"
	}
	return ".css"
}

// Reference is a single asset tag as discovered in the document. It is never
// mutated after extraction.
type Reference struct {
	URL   string
	Start int
	End   int
	Tag   string
	Type  Type
}

// Group is an ordered run of references sharing a type.
type Group []Reference

// Start is the offset of the first member's tag.
func (g Group) Start() int {
	if len(g) == 0 {
		return 0
	}
	return g[0].Start
}

// End is the offset just past the last member's tag.
func (g Group) End() int {
	if len(g) == 0 {
		return 0
	}
	return g[len(g)-1].End
}

// Type is the shared type of the group's members.
func (g Group) Type() Type {
	if len(g) == 0 {
		return ""
	}
	return g[0].Type
}

// Singleton reports whether the group is passed through rather than concatenated.
func (g Group) Singleton() bool {
	return len(g) == 1
}

// Extractor locates asset groups in raw HTML text. Implementations must be
// pure: the same input always yields the same groups, in document order.
type Extractor interface {
	Extract(html string) []Group
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(html string) []Group

// Extract calls f(html).
func (f ExtractorFunc) Extract(html string) []Group {
	return f(html)
}
