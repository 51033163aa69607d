package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace is the namespace for all Prometheus metrics
const MetricsNamespace = "trendwatch"

// Collectors holds the Prometheus metrics exposed on /metrics
type Collectors struct {
	// Observations counts accepted observations per source platform
	Observations *prometheus.CounterVec
	// SourceFailures counts failed source fetches per source platform
	SourceFailures *prometheus.CounterVec
	// Sessions counts finished crawl sessions by final status
	Sessions *prometheus.CounterVec
	// Pushes counts push attempts by outcome
	Pushes *prometheus.CounterVec
	// CrawlDuration observes wall-clock duration of whole crawl rounds
	CrawlDuration prometheus.Histogram
}

// NewCollectors creates and registers all Prometheus metrics. A nil
// registerer falls back to the default registry.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collectors{
		Observations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "observations_total",
				Help:      "Total number of accepted headline observations",
			},
			[]string{"source"},
		),
		SourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "source_failures_total",
				Help:      "Total number of failed source fetches",
			},
			[]string{"source"},
		),
		Sessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "sessions_total",
				Help:      "Total number of finished crawl sessions",
			},
			[]string{"status"},
		),
		Pushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "pushes_total",
				Help:      "Total number of report push attempts",
			},
			[]string{"status"},
		),
		CrawlDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "crawl_duration_seconds",
				Help:      "Duration of whole crawl rounds in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~3.4min
			},
		),
	}
}
