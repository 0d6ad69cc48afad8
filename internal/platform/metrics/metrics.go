// Package metrics owns the process prometheus registry and the /metrics endpoint
package metrics

import (
	"net/http"
	"strconv"
	"time"

	phttp "storepulse/internal/platform/net/http"
	"storepulse/internal/platform/net/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric we register
const Namespace = "storepulse"

// Registry is a private registry so tests can build isolated ones
type Registry struct {
	reg *prometheus.Registry
}

// New returns a registry with go runtime and process collectors
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg}
}

// NewBare returns an empty registry, used by tests
func NewBare() *Registry { return &Registry{reg: prometheus.NewRegistry()} }

// Factory returns a promauto factory bound to this registry
func (r *Registry) Factory() promauto.Factory { return promauto.With(r.reg) }

// Gatherer exposes the registry for tests and custom handlers
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Mount exposes the registry at path when enabled
func (r *Registry) Mount(rt phttp.Router, path string, enabled bool) {
	if !enabled || r == nil {
		return
	}
	rt.Handle(path, r.Handler())
}

// HTTP records request counts and latencies by route pattern
func (r *Registry) HTTP() func(http.Handler) http.Handler {
	f := r.Factory()
	requests := f.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	latency := f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := middleware.RoutePattern(req)
			requests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
			latency.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
		})
	}
}
