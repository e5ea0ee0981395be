// Package metrics provides Prometheus metrics for probe and training runs
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	// Document metrics
	DocumentsTotal   *prometheus.CounterVec
	DocumentDuration prometheus.Histogram
	DocumentsFailed  *prometheus.CounterVec

	// Page metrics
	PagesRenderedTotal *prometheus.CounterVec
	RenderDuration     prometheus.Histogram
	PagesMostlyBlack   prometheus.Counter

	// Text metrics
	QualityLabelsTotal *prometheus.CounterVec
	ContentTypesTotal  *prometheus.CounterVec

	// Model metrics
	DecisionsTotal   *prometheus.CounterVec
	ModelConfidence  prometheus.Histogram
	ArtifactMismatch prometheus.Counter

	// Run metrics
	RunDuration prometheus.Gauge
	RunErrors   prometheus.Gauge
}

// NewMetrics creates and registers all metrics on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{Registry: reg}

	m.DocumentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docready_documents_total",
			Help: "Documents processed by readiness classification and status",
		},
		[]string{"classification", "status"},
	)

	m.DocumentDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docready_document_duration_seconds",
			Help:    "Wall-clock time spent on one document",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.DocumentsFailed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docready_document_errors_total",
			Help: "Per-document stage failures",
		},
		[]string{"stage"},
	)

	m.PagesRenderedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docready_pages_rendered_total",
			Help: "Page render attempts by outcome",
		},
		[]string{"outcome"},
	)

	m.RenderDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docready_render_duration_seconds",
			Help:    "Duration of single-page rasterization",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	m.PagesMostlyBlack = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docready_pages_mostly_black_total",
			Help: "Pages flagged as mostly black",
		},
	)

	m.QualityLabelsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docready_text_quality_total",
			Help: "Documents by text quality label",
		},
		[]string{"label"},
	)

	m.ContentTypesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docready_content_type_total",
			Help: "Documents by predicted content type",
		},
		[]string{"content_type"},
	)

	m.DecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docready_doc_type_decisions_total",
			Help: "Final document type decisions by provenance",
		},
		[]string{"source", "label"},
	)

	m.ModelConfidence = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docready_model_confidence",
			Help:    "Top-class probability of model predictions",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	m.ArtifactMismatch = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docready_artifact_mismatch_total",
			Help: "Inference calls rejected for feature or sampling mismatch",
		},
	)

	m.RunDuration = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "docready_run_duration_seconds",
			Help: "Duration of the last run",
		},
	)

	m.RunErrors = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "docready_run_errors",
			Help: "Errors recorded in the last run",
		},
	)

	return m
}

// RecordRender records one page render attempt
func (m *Metrics) RecordRender(ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.PagesRenderedTotal.WithLabelValues(outcome).Inc()
	m.RenderDuration.Observe(duration.Seconds())
}

// RecordDocument records one finished document
func (m *Metrics) RecordDocument(classification, status, qualityLabel, contentType string, mostlyBlack int, duration time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(classification, status).Inc()
	m.DocumentDuration.Observe(duration.Seconds())
	m.QualityLabelsTotal.WithLabelValues(qualityLabel).Inc()
	m.ContentTypesTotal.WithLabelValues(contentType).Inc()
	m.PagesMostlyBlack.Add(float64(mostlyBlack))
}

// RecordStageError records a failed stage of a document
func (m *Metrics) RecordStageError(stage string) {
	if m == nil {
		return
	}
	m.DocumentsFailed.WithLabelValues(stage).Inc()
}

// RecordDecision records the resolved doc type and, when present, the model confidence
func (m *Metrics) RecordDecision(source, label string, confidence *float64) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(source, label).Inc()
	if confidence != nil {
		m.ModelConfidence.Observe(*confidence)
	}
}

// RecordMismatch records a rejected inference call
func (m *Metrics) RecordMismatch() {
	if m == nil {
		return
	}
	m.ArtifactMismatch.Inc()
}

// RecordRun sets the run-level gauges
func (m *Metrics) RecordRun(duration time.Duration, errors int) {
	if m == nil {
		return
	}
	m.RunDuration.Set(duration.Seconds())
	m.RunErrors.Set(float64(errors))
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
