package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pixecom",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixecom",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pixecom",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	domainCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixecom",
			Subsystem: "domains",
			Name:      "cache_total",
			Help:      "Domain resolver cache hits and misses.",
		},
		[]string{"outcome"},
	)

	domainLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixecom",
			Subsystem: "domains",
			Name:      "lookups_total",
			Help:      "Domain lookup calls by outcome; failures count as miss.",
		},
		[]string{"outcome"},
	)

	storefrontRewrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixecom",
			Subsystem: "storefront",
			Name:      "rewrites_total",
			Help:      "Storefront router decisions by outcome.",
		},
		[]string{"outcome"},
	)

	sectionSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixecom",
			Subsystem: "builder",
			Name:      "section_saves_total",
			Help:      "Section list save attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		domainCache,
		domainLookups,
		storefrontRewrites,
		sectionSaves,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordDomainCacheHit counts a resolver cache hit.
func RecordDomainCacheHit() {
	domainCache.WithLabelValues("hit").Inc()
}

// RecordDomainCacheMiss counts a resolver cache miss or expiry.
func RecordDomainCacheMiss() {
	domainCache.WithLabelValues("miss").Inc()
}

// RecordDomainLookup counts a lookup call outcome ("hit" or "miss").
func RecordDomainLookup(outcome string) {
	domainLookups.WithLabelValues(outcome).Inc()
}

// RecordStorefrontDecision counts a storefront router outcome
// ("passthrough", "rewrite" or "not_found").
func RecordStorefrontDecision(outcome string) {
	storefrontRewrites.WithLabelValues(outcome).Inc()
}

// RecordSectionSave counts a section save attempt result.
func RecordSectionSave(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	sectionSaves.WithLabelValues(result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource identifiers out of API paths so metric
// cardinality stays bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	if len(parts) < 3 {
		return "/api"
	}
	resource := parts[2]
	if len(parts) == 3 {
		return "/api/v1/" + resource
	}
	return "/api/v1/" + resource + "/:id"
}
