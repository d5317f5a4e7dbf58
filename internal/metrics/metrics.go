// Package metrics exposes Prometheus metrics for the WildNest API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the API's collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	identifications *prometheus.CounterVec
	postsCreated    *prometheus.CounterVec
	likeToggles     *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the Go and process
// collectors, on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildnest_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wildnest_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		identifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildnest_identifications_total",
			Help: "Identification attempts by result",
		}, []string{"result"}),
		postsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildnest_posts_total",
			Help: "Post create calls, split by whether a new post was stored",
		}, []string{"outcome"}),
		likeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildnest_like_toggles_total",
			Help: "Like toggles by resulting state",
		}, []string{"state"}),
	}
	if err := m.registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := m.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	if err := m.registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.identifications.Describe(ch)
	m.postsCreated.Describe(ch)
	m.likeToggles.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.identifications.Collect(ch)
	m.postsCreated.Collect(ch)
	m.likeToggles.Collect(ch)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordIdentification(result string) {
	m.identifications.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPost(created bool) {
	outcome := "duplicate"
	if created {
		outcome = "created"
	}
	m.postsCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLikeToggle(liked bool) {
	state := "unliked"
	if liked {
		state = "liked"
	}
	m.likeToggles.WithLabelValues(state).Inc()
}

// Middleware records request counts and latency keyed by the matched chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
