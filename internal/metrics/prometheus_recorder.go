package metrics

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	transformDuration *prom.HistogramVec
	documents         *prom.CounterVec
	bundles           *prom.CounterVec
	bundleMembers     prom.Histogram
	missingAssets     prom.Counter
	buildDuration     prom.Histogram
	filesWritten      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.transformDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "htmlconcat",
			Name:      "transform_duration_seconds",
			Help:      "Duration of individual document transforms",
			Buckets:   prom.DefBuckets,
		}, []string{"ext"})
		pr.documents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "htmlconcat",
			Name:      "documents_total",
			Help:      "Documents processed by outcome",
		}, []string{"result"})
		pr.bundles = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "htmlconcat",
			Name:      "bundles_total",
			Help:      "Concatenated bundles written by asset type",
		}, []string{"type"})
		pr.bundleMembers = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "htmlconcat",
			Name:      "bundle_members",
			Help:      "Number of assets merged into each bundle",
			Buckets:   []float64{2, 3, 4, 6, 8, 12, 16, 32},
		})
		pr.missingAssets = prom.NewCounter(prom.CounterOpts{
			Namespace: "htmlconcat",
			Name:      "missing_assets_total",
			Help:      "Local asset references that could not be found",
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "htmlconcat",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.filesWritten = prom.NewGauge(prom.GaugeOpts{
			Namespace: "htmlconcat",
			Name:      "files_written",
			Help:      "Files written by the last build",
		})
		reg.MustRegister(pr.transformDuration, pr.documents, pr.bundles, pr.bundleMembers, pr.missingAssets, pr.buildDuration, pr.filesWritten)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveTransformDuration(ext string, d time.Duration) {
	if p == nil || p.transformDuration == nil {
		return
	}
	p.transformDuration.WithLabelValues(ext).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocument(result ResultLabel) {
	if p == nil || p.documents == nil {
		return
	}
	p.documents.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncBundle(assetType string, members int) {
	if p == nil || p.bundles == nil {
		return
	}
	p.bundles.WithLabelValues(assetType).Inc()
	p.bundleMembers.Observe(float64(members))
}

func (p *PrometheusRecorder) IncMissingAsset() {
	if p == nil || p.missingAssets == nil {
		return
	}
	p.missingAssets.Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetFilesWritten(n int) {
	if p == nil || p.filesWritten == nil {
		return
	}
	p.filesWritten.Set(float64(n))
}

// WriteTextfile writes the registry in the Prometheus text exposition format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(filename string, reg *prom.Registry) error {
	if err := prom.WriteToTextfile(filename, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
