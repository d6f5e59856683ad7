package examrag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects retrieval pipeline counters. A nil *Metrics is valid and
// records nothing, so callers that do not care about observability can skip
// WithMetrics entirely.
type Metrics struct {
	retrievals prometheus.Counter
	degraded   prometheus.Counter
	fallbacks  *prometheus.CounterVec
	candidates prometheus.Histogram
}

// NewMetrics creates and registers the retrieval metrics on reg. Pass
// prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		retrievals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "examrag",
			Name:      "retrievals_total",
			Help:      "Total retrieval requests.",
		}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "examrag",
			Name:      "retrievals_degraded_total",
			Help:      "Retrievals that returned no context due to a collaborator failure.",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examrag",
			Name:      "fallback_searches_total",
			Help:      "Fallback searches executed, by strategy.",
		}, []string{"strategy"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "examrag",
			Name:      "candidate_chunks",
			Help:      "Candidate chunks collected per retrieval before re-ranking.",
			Buckets:   prometheus.LinearBuckets(0, 2, 11),
		}),
	}
	reg.MustRegister(m.retrievals, m.degraded, m.fallbacks, m.candidates)
	return m
}

func (m *Metrics) observeRetrieval() {
	if m == nil {
		return
	}
	m.retrievals.Inc()
}

func (m *Metrics) observeDegraded() {
	if m == nil {
		return
	}
	m.degraded.Inc()
}

func (m *Metrics) observeFallback(strategy string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(strategy).Inc()
}

func (m *Metrics) observeCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}
