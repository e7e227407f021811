// Package concat implements the HTML asset concatenation transform.
//
// For every HTML document the transform extracts groups of adjacent script or
// stylesheet references, resolves the local ones concurrently through an
// Importer, merges each group of two or more members into a single
// content-named bundle (concat-<hash>.js / .css) and splices the document so
// the group's tags are replaced by one tag pointing at the bundle. Singleton
// groups are left in place and their asset is re-emitted unchanged.
//
// A missing asset is not an error: it is replaced by empty contents and a
// warning diagnostic is emitted. Absolute-path URLs, I/O failures and broken
// invariants abort the document; no partial ResultSet is ever returned.
//
// Transform is a pure function of the document and its collaborators. It keeps
// no state between calls and is safe to call concurrently.
package concat
