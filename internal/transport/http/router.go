package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"childminder/internal/platform/metrics"
	"childminder/pkg/platform/middleware/request"
	"childminder/pkg/platform/middleware/requesttime"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 1 << 20

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all public endpoints with middleware.
// gatherer backs /metrics; pass nil to omit the endpoint.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, modules ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.BodyLimit(MaxBodyBytes))
	r.Use(endpointLatency(m))

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	for _, module := range modules {
		module.Register(r)
	}
	return r
}

// endpointLatency observes latency labelled by route pattern, so path
// parameters do not explode label cardinality.
func endpointLatency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			pattern := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				pattern = r.Method + " " + rc.RoutePattern()
			}
			m.ObserveEndpointLatency(pattern, time.Since(start).Seconds())
		})
	}
}
