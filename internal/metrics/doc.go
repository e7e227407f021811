// Package metrics provides the observability hooks for htmlconcat builds.
//
// Components receive a Recorder through their options. NoopRecorder is the
// default, so callers never need nil checks; the CLI swaps in a
// PrometheusRecorder when a metrics text file is configured:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run the build ...
//	err := metrics.WriteTextfile(path, reg)
package metrics
