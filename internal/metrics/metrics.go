// Package metrics exposes Prometheus instrumentation for the tide server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "tidecalc"

var (
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "request_latency",
			Subsystem: subsystem,
			Help:      "HTTP request latencies in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.2, 0.4, 0.8, 1.0, 2.0, 4.0},
		},
		[]string{"verb", "path", "code"},
	)

	samplesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:      "samples_generated_total",
			Subsystem: subsystem,
			Help:      "Tide height samples computed.",
		},
	)

	profileLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "profile_cache_lookups_total",
			Subsystem: subsystem,
			Help:      "Station profile cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		requestLatency,
		samplesGenerated,
		profileLookups,
	)
}

// ObserveRequestLatency records one request.
func ObserveRequestLatency(verb, path, code string, latency float64) {
	requestLatency.With(prometheus.Labels{
		"code": code,
		"verb": verb,
		"path": path,
	}).Observe(latency)
}

// AddSamples counts computed samples.
func AddSamples(n int) {
	samplesGenerated.Add(float64(n))
}

// ProfileCacheHit counts a profile served from cache.
func ProfileCacheHit() {
	profileLookups.WithLabelValues("hit").Inc()
}

// ProfileCacheMiss counts a profile loaded from a store.
func ProfileCacheMiss() {
	profileLookups.WithLabelValues("miss").Inc()
}

// LatencyMiddleware observes request latency labelled by route template so
// that path parameters do not explode cardinality. Panics are reported as
// 500 and re-thrown.
func LatencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := time.Now()
		verb := c.Request.Method

		defer func() {
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			if err := recover(); err != nil {
				ObserveRequestLatency(verb, path, "500", time.Since(t).Seconds())
				panic(err)
			}
			ObserveRequestLatency(verb, path, strconv.Itoa(c.Writer.Status()), time.Since(t).Seconds())
		}()

		c.Next()
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
