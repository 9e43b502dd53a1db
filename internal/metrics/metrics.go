// Package metrics exposes Prometheus counters and gauges for the ingestion
// server: uploads, rejections by reason, validation verdicts, and
// downloads. Grounded on the sibling HLS orchestrator's metrics package.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors registered by New.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal      *prometheus.CounterVec
	uploadBytesTotal  prometheus.Counter
	filesValidated    *prometheus.CounterVec
	zstdDecompressed  prometheus.Counter
	downloadsTotal    *prometheus.CounterVec
	activeSessions    prometheus.Gauge
}

// New creates and registers the ingestion server's Prometheus metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hls_ingest_uploads_total",
			Help: "Total number of upload attempts by outcome",
		}, []string{"outcome"}),
		uploadBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hls_ingest_upload_bytes_total",
			Help: "Total number of bytes accepted into archive files",
		}),
		filesValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hls_ingest_files_validated_total",
			Help: "Total number of extracted files validated, by class and verdict",
		}, []string{"class", "verdict"}),
		zstdDecompressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hls_ingest_zstd_entries_decompressed_total",
			Help: "Total number of .zst archive entries successfully re-decompressed",
		}),
		downloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hls_ingest_downloads_total",
			Help: "Total number of download requests by outcome",
		}, []string{"status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hls_ingest_active_sessions",
			Help: "Number of HTTP sessions currently being served",
		}),
	}

	registry.MustRegister(
		m.uploadsTotal,
		m.uploadBytesTotal,
		m.filesValidated,
		m.zstdDecompressed,
		m.downloadsTotal,
		m.activeSessions,
	)

	return m
}

// ObserveUpload records the terminal outcome of one upload attempt.
func (m *Metrics) ObserveUpload(outcome string, bodyBytes int64) {
	m.uploadsTotal.WithLabelValues(outcome).Inc()
	if bodyBytes > 0 {
		m.uploadBytesTotal.Add(float64(bodyBytes))
	}
}

// ObserveValidation records one file's classification verdict.
func (m *Metrics) ObserveValidation(class, verdict string) {
	m.filesValidated.WithLabelValues(class, verdict).Inc()
}

// ObserveZstdDecompressed records one successfully re-decompressed entry.
// The archive extractor does not call it, so the counter stays at zero.
func (m *Metrics) ObserveZstdDecompressed() {
	m.zstdDecompressed.Inc()
}

// ObserveDownload records one download response by outcome (e.g. "ok", "not_found").
func (m *Metrics) ObserveDownload(status string) {
	m.downloadsTotal.WithLabelValues(status).Inc()
}

// SessionStarted increments the in-flight session gauge.
func (m *Metrics) SessionStarted() { m.activeSessions.Inc() }

// SessionEnded decrements the in-flight session gauge.
func (m *Metrics) SessionEnded() { m.activeSessions.Dec() }

// Handler returns the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
