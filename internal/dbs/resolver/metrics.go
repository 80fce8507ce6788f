package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"childminder/internal/dbs/models"
)

// Metrics counts resolutions. A nil *Metrics records nothing.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	personLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "childminder_dbs_resolutions_total",
			Help: "DBS status resolutions by resulting status",
		}, []string{"status"}),
		personLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "childminder_dbs_person_lookup_cache_total",
			Help: "Resolutions served from the outcome cached on the person (hit) or needing the registry (miss)",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeStatus(status models.Status) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) observePersonCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.personLookups.WithLabelValues(result).Inc()
}
