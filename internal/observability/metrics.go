package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	DocumentsParsed    *prometheus.CounterVec
	DocumentsProcessed *prometheus.CounterVec
	QuestionsAnswered  *prometheus.CounterVec
	RateLimitRetries   prometheus.Counter
	ProviderDuration   *prometheus.HistogramVec
	ParseStrategy      *prometheus.CounterVec
	FieldRowsWritten   *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_parsed_total",
			Help:      "XML documents parsed, by outcome (ok, unavailable, failed).",
		}, []string{"outcome"}),
		DocumentsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents handled by the batch runner, by status.",
		}, []string{"status"}),
		QuestionsAnswered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_answered_total",
			Help:      "Questions answered, by outcome (ok, error, unparsed).",
		}, []string{"outcome"}),
		RateLimitRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_retries_total",
			Help:      "Backend calls retried after a rate-limit response.",
		}),
		ProviderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of embedding and generation calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", "provider"}),
		ParseStrategy: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_strategy_total",
			Help:      "Structured answer parses, by the strategy that succeeded (or exhausted).",
		}, []string{"strategy"}),
		FieldRowsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_rows_written_total",
			Help:      "Rows written per extracted field table.",
		}, []string{"section"}),
	}
}

func (m *Metrics) DocumentParsed(outcome string) {
	if m == nil {
		return
	}
	m.DocumentsParsed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DocumentProcessed(status string) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.WithLabelValues(status).Inc()
}

func (m *Metrics) QuestionAnswered(outcome string) {
	if m == nil {
		return
	}
	m.QuestionsAnswered.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateLimitRetry() {
	if m == nil {
		return
	}
	m.RateLimitRetries.Inc()
}

func (m *Metrics) ObserveProvider(operation, provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderDuration.WithLabelValues(operation, provider).Observe(d.Seconds())
}

func (m *Metrics) ParsedWith(strategy string) {
	if m == nil {
		return
	}
	m.ParseStrategy.WithLabelValues(strategy).Inc()
}

func (m *Metrics) FieldRows(section string, n int) {
	if m == nil {
		return
	}
	m.FieldRowsWritten.WithLabelValues(section).Add(float64(n))
}
