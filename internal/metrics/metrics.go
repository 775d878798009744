package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConversionsTotal counts finished video conversions by terminal
	// status.
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dubapi_conversions_total",
		Help: "Video conversions by terminal status.",
	}, []string{"status"})

	// ConversionDuration observes wall time of a conversion from
	// dequeue to terminal status.
	ConversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dubapi_conversion_duration_seconds",
		Help:    "Conversion processing time by terminal status.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"status"})

	// DubbingsTotal counts standalone voice dubbing requests by
	// terminal status.
	DubbingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dubapi_dubbings_total",
		Help: "Voice dubbing requests by terminal status.",
	}, []string{"status"})

	// ActiveJobs tracks conversions currently being processed by the
	// worker pool.
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dubapi_active_jobs",
		Help: "Conversions currently in flight.",
	})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
