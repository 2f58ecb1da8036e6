package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coastwatch"

// Metrics holds the Prometheus collectors for report processing.
type Metrics struct {
	ReportsScored        *prometheus.CounterVec // labels: outcome={ok,error}
	CorrelationsRetained prometheus.Counter
	PostsClassified      *prometheus.CounterVec // labels: source={llm,fallback}
	LLMCalls             *prometheus.CounterVec // labels: purpose, outcome={success,error,invalid}
	Fallbacks            *prometheus.CounterVec // labels: component={classifier,keywords,search,analyzer}
	HotspotsDetected     *prometheus.CounterVec // labels: urgency
	VerificationRequests *prometheus.CounterVec // labels: source={reddit,news}, outcome={success,error,disallowed}
	ScoringDuration      prometheus.Histogram
	QueueDepth           prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_scored_total",
			Help:      "Reports run through correlation scoring, by outcome.",
		}, []string{"outcome"}),
		CorrelationsRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlations_retained_total",
			Help:      "Post correlations kept above the minimum score.",
		}),
		PostsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_classified_total",
			Help:      "Posts classified against a report, by analysis source.",
		}, []string{"source"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Language-model calls by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Deterministic fallbacks taken, by component.",
		}, []string{"component"}),
		HotspotsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hotspots_detected_total",
			Help:      "Hotspots detected, by overall urgency.",
		}, []string{"urgency"}),
		VerificationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_requests_total",
			Help:      "Corroboration lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_duration_seconds",
			Help:      "Duration of a complete report scoring run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Reports waiting in the processing queue.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsScored,
		m.CorrelationsRetained,
		m.PostsClassified,
		m.LLMCalls,
		m.Fallbacks,
		m.HotspotsDetected,
		m.VerificationRequests,
		m.ScoringDuration,
		m.QueueDepth,
	}
}

// NewMetrics creates all metrics and registers them with the default registry.
// Call it once per process.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWithRegistry registers the metrics on reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
