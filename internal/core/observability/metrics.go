package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of Flickr API calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"method", "outcome"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Bucketed cache lookups by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Cache store operations by backend, op and result.",
		},
		[]string{"backend", "op", "result"},
	)

	cacheOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Cache store operation latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"backend", "op"},
	)

	portraitSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portrait_selections_total",
			Help: "Portrait selections by mode (ranked|random) and outcome (found|empty|error).",
		},
		[]string{"mode", "outcome"},
	)

	invalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidations_total",
			Help: "Processed cache invalidation events.",
		},
		[]string{"op", "outcome"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)

	collectors = []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds, upstreamLatencySeconds,
		cacheResults, cacheOpTotal, cacheOpDuration,
		portraitSelections, invalidations, buildInfo,
	}

	defaultOnce sync.Once
)

func init() {
	Init(prometheus.DefaultRegisterer)
}

// Init registers the collectors with reg. Collectors already registered
// with reg are left alone, so calling Init twice is harmless.
func Init(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	if reg == prometheus.DefaultRegisterer {
		defaultOnce.Do(func() { registerAll(reg) })
		return
	}
	registerAll(reg)
}

func registerAll(reg prometheus.Registerer) {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(method, outcome string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(method, outcome).Observe(durationSeconds)
}

func IncCacheHit(op string) {
	cacheResults.WithLabelValues(op, "hit").Inc()
}

func IncCacheMiss(op string) {
	cacheResults.WithLabelValues(op, "miss").Inc()
}

func ObserveCacheOp(backend, op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(backend, op, result).Inc()
	cacheOpDuration.WithLabelValues(backend, op).Observe(durationSeconds)
}

func IncPortraitSelection(mode, outcome string) {
	portraitSelections.WithLabelValues(mode, outcome).Inc()
}

func IncInvalidation(op, outcome string) {
	invalidations.WithLabelValues(op, outcome).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
