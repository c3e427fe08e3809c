package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ingestion runs.
type Metrics struct {
	// Rows upserted per dataset
	RowsUpserted *prometheus.CounterVec

	// Dataset step outcomes: ok, failed
	DatasetOutcome *prometheus.CounterVec

	// Dataset step latency
	DatasetLatency *prometheus.HistogramVec

	// Run outcomes by result status
	RunOutcome *prometheus.CounterVec

	// Validation findings per benchmark
	Findings *prometheus.CounterVec
}

// NewMetrics registers the ingestion metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RowsUpserted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seer_ingest_rows_upserted_total",
			Help: "Total rows upserted by dataset",
		}, []string{"dataset"}),

		DatasetOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seer_ingest_dataset_outcomes_total",
			Help: "Dataset ingestion steps by outcome",
		}, []string{"dataset", "outcome"}),

		DatasetLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seer_ingest_dataset_duration_seconds",
			Help:    "Duration of one dataset's open, parse and upsert step",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"dataset"}),

		RunOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seer_ingest_runs_total",
			Help: "Ingestion runs by result status",
		}, []string{"status"}),

		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seer_ingest_validation_findings_total",
			Help: "Validation findings by benchmark",
		}, []string{"benchmark"}),
	}
}

// ObserveDataset records one dataset step.
func (m *Metrics) ObserveDataset(dataset string, rows int64, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DatasetLatency.WithLabelValues(dataset).Observe(d.Seconds())
	if err != nil {
		m.DatasetOutcome.WithLabelValues(dataset, "failed").Inc()
		return
	}
	m.DatasetOutcome.WithLabelValues(dataset, "ok").Inc()
	m.RowsUpserted.WithLabelValues(dataset).Add(float64(rows))
}

// ObserveRun records a finished run and its findings.
func (m *Metrics) ObserveRun(r *Result) {
	if m == nil || r == nil {
		return
	}
	m.RunOutcome.WithLabelValues(string(r.Status)).Inc()
	for _, f := range r.Findings {
		m.Findings.WithLabelValues(f.Benchmark).Inc()
	}
}
