// Package assets models the script and stylesheet references found in an HTML
// document and provides the default extractor that groups them.
//
// A Group is a run of same-type references that appeared next to each other
// with nothing but whitespace between them. Offsets are byte offsets into the
// document text, so the original tag text is always html[Start:End].
package assets
