package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the household workflow metrics. A nil *Metrics records nothing.
type Metrics struct {
	MembersAdded    *prometheus.CounterVec
	MembersRemoved  *prometheus.CounterVec
	HouseholdSize   *prometheus.HistogramVec
	EndpointLatency *prometheus.HistogramVec

	// Certificate metrics
	CertificatesChanged  prometheus.Counter
	DuplicateRejections  *prometheus.CounterVec
	EventPublishFailures *prometheus.CounterVec
}

// New creates and registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MembersAdded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "childminder_household_members_added_total",
			Help: "Total number of household members added, labeled by role",
		}, []string{"role"}),
		MembersRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "childminder_household_members_removed_total",
			Help: "Total number of household members removed, labeled by role",
		}, []string{"role"}),
		HouseholdSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "childminder_household_roster_size",
			Help:    "Roster size after a member is added, labeled by role",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}, []string{"role"}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "childminder_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CertificatesChanged: f.NewCounter(prometheus.CounterOpts{
			Name: "childminder_dbs_certificates_changed_total",
			Help: "Total number of certificate numbers set or changed",
		}),
		DuplicateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "childminder_dbs_duplicate_rejections_total",
			Help: "Certificate numbers rejected as duplicates, labeled by kind (self, household)",
		}, []string{"kind"}),
		EventPublishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "childminder_event_publish_failures_total",
			Help: "Domain events that could not be published, labeled by event type",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncrementMembersAdded(role string, rosterSize int) {
	if m == nil {
		return
	}
	m.MembersAdded.WithLabelValues(role).Inc()
	m.HouseholdSize.WithLabelValues(role).Observe(float64(rosterSize))
}

func (m *Metrics) IncrementMembersRemoved(role string) {
	if m == nil {
		return
	}
	m.MembersRemoved.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementCertificatesChanged() {
	if m == nil {
		return
	}
	m.CertificatesChanged.Inc()
}

// IncrementDuplicateRejections counts a rejected number by kind.
func (m *Metrics) IncrementDuplicateRejections(kind string) {
	if m == nil {
		return
	}
	m.DuplicateRejections.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementEventPublishFailures(eventType string) {
	if m == nil {
		return
	}
	m.EventPublishFailures.WithLabelValues(eventType).Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
