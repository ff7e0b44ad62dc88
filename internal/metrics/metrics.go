package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TemplatesApplied prometheus.Counter
	EventsPublished  *prometheus.CounterVec
}

// New creates a Metrics with a private registry so tests can build as
// many instances as they want without duplicate-collector panics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tally_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		TemplatesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "tally_recurring_templates_applied_total",
			Help: "Recurring templates materialized into expenses.",
		}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_expense_events_published_total",
			Help: "Expense change events published to the broker.",
		}, []string{"action"}),
	}
}

// TemplateApplied counts one template materialized into an expense.
func (m *Metrics) TemplateApplied() {
	m.TemplatesApplied.Inc()
}

// EventPublished counts one successfully published change event.
func (m *Metrics) EventPublished(action string) {
	m.EventsPublished.WithLabelValues(action).Inc()
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments requests with the route pattern as the label so
// /expenses/{id} stays one series instead of one per id.
func (m *Metrics) Middleware(routePattern func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if routePattern != nil {
				if p := routePattern(r); p != "" {
					route = p
				}
			}

			m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
