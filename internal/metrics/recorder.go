package metrics

import "time"

// ResultLabel enumerates document outcomes for counters.
type ResultLabel string

const (
	ResultSuccess     ResultLabel = "success"
	ResultWarning     ResultLabel = "warning"
	ResultFailed      ResultLabel = "failed"
	ResultPassthrough ResultLabel = "passthrough"
	ResultSkipped     ResultLabel = "skipped"
)

// Recorder defines observability hooks for document transforms and builds.
type Recorder interface {
	ObserveTransformDuration(ext string, d time.Duration)
	IncDocument(result ResultLabel)
	IncBundle(assetType string, members int)
	IncMissingAsset()
	ObserveBuildDuration(d time.Duration)
	SetFilesWritten(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTransformDuration(string, time.Duration) {}
func (NoopRecorder) IncDocument(ResultLabel)                        {}
func (NoopRecorder) IncBundle(string, int)                          {}
func (NoopRecorder) IncMissingAsset()                               {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)             {}
func (NoopRecorder) SetFilesWritten(int)                            {}
