package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Document outcomes recorded by ObserveDocument.
const (
	OutcomeOK     = "ok"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)

// Metrics provides observability for statement conversion.
// Tracks document outcomes, extracted records, skipped lines per reason
// and end-to-end conversion time.
type Metrics struct {
	Documents        *prometheus.CounterVec
	RecordsExtracted prometheus.Counter
	LinesSkipped     *prometheus.CounterVec
	ConvertDuration  prometheus.Histogram
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "royalty_documents_total",
			Help: "Total number of statements processed, by outcome",
		}, []string{"outcome"}),
		RecordsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "royalty_records_extracted_total",
			Help: "Total number of royalty records extracted",
		}),
		LinesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "royalty_lines_skipped_total",
			Help: "Total number of statement lines that produced no record, by reason",
		}, []string{"reason"}),
		ConvertDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "royalty_convert_duration_seconds",
			Help:    "Duration of a statement conversion (extraction, parsing and aggregation)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveDocument records the outcome of one conversion.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDocument(outcome string, start time.Time) {
	m.Documents.WithLabelValues(outcome).Inc()
	m.ConvertDuration.Observe(time.Since(start).Seconds())
}

// AddRecords records extracted records.
func (m *Metrics) AddRecords(n int) {
	m.RecordsExtracted.Add(float64(n))
}

// AddSkipped records lines skipped for reason.
func (m *Metrics) AddSkipped(reason string, n int) {
	m.LinesSkipped.WithLabelValues(reason).Add(float64(n))
}
