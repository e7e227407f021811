// Package build runs the concatenation transform over a whole source tree.
//
// A build walks the configured input directory, transforms every file in
// parallel, merges the per-document result sets and writes them under the
// output directory. All execution paths (build command, watch loop, tests)
// route through BuildService.
package build
