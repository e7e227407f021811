package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveTransformDuration(".html", 15*time.Millisecond)
	pr.IncDocument(ResultSuccess)
	pr.IncBundle("script", 3)
	pr.IncMissingAsset()
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.SetFilesWritten(7)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["htmlconcat_bundles_total"])
	assert.True(t, names["htmlconcat_missing_assets_total"])
	assert.True(t, names["htmlconcat_files_written"])
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncDocument(ResultFailed)
	pr.IncBundle("stylesheet", 2)
	pr.SetFilesWritten(1)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncMissingAsset()

	out := filepath.Join(t.TempDir(), "htmlconcat.prom")
	require.NoError(t, WriteTextfile(out, reg))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "htmlconcat_missing_assets_total 1")
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
