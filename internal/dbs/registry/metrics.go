package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for the lookup counter.
const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
)

// Metrics tracks registry lookups. A nil *Metrics records nothing.
type Metrics struct {
	lookups       *prometheus.CounterVec
	lookupLatency prometheus.Histogram
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
}

// NewMetrics registers the registry collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "childminder_dbs_registry_lookups_total",
			Help: "DBS registry lookups by outcome (found, not_found, or error category)",
		}, []string{"outcome"}),
		lookupLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "childminder_dbs_registry_lookup_duration_seconds",
			Help:    "Latency of upstream DBS registry calls",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "childminder_dbs_registry_cache_hits_total",
			Help: "Registry lookups served from the shared lookup cache",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "childminder_dbs_registry_cache_misses_total",
			Help: "Registry lookups that missed the shared lookup cache",
		}),
	}
}

func (m *Metrics) observeLookup(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
	m.lookupLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) recordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
