package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scrapscan"

// Scan results.
const (
	ScanFound    = "found"
	ScanNotFound = "not_found"
	ScanError    = "error"
)

// ScrapMetrics records scan and batch activity.
type ScrapMetrics struct {
	scans         *prometheus.CounterVec
	lines         *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

// NewScrapMetrics registers the scrap metrics on the provided registerer.
func NewScrapMetrics(reg prometheus.Registerer) *ScrapMetrics {
	if reg == nil {
		return &ScrapMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Barcode resolutions by result.",
	}, []string{"result"})
	lines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrap_lines_total",
		Help:      "Submitted scrap lines by outcome.",
	}, []string{"outcome"})
	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrap_batch_duration_seconds",
		Help:      "Duration of scrap batch commits in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(scans, lines, batchDuration)
	return &ScrapMetrics{
		scans:         scans,
		lines:         lines,
		batchDuration: batchDuration,
	}
}

// IncScan counts one barcode resolution.
func (m *ScrapMetrics) IncScan(result string) {
	if m == nil || m.scans == nil {
		return
	}
	m.scans.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncLine counts one submitted line; outcome is "committed" or a skip reason.
func (m *ScrapMetrics) IncLine(outcome string) {
	if m == nil || m.lines == nil {
		return
	}
	m.lines.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveBatch records how long a batch commit took.
func (m *ScrapMetrics) ObserveBatch(duration time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
