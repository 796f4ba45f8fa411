package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueueDepth is the current sum of per-site task bucket sizes
	// (pkg/store.Store.Len), sampled periodically by Collector.
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arachne_queue_depth",
			Help: "Total number of pending tasks across all sites",
		},
	)

	SitesConfigured = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arachne_sites_configured",
			Help: "Number of sites currently present in the site table",
		},
	)

	SiteEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arachne_site_events_total",
			Help: "Total number of site additions and removals",
		},
		[]string{"event"},
	)

	DispatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arachne_dispatch_total",
			Help: "Total number of tasks returned by Scheduler.Get",
		},
	)

	DispatchEmptyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arachne_dispatch_empty_total",
			Help: "Total number of Scheduler.Get calls that found no due task",
		},
	)

	DispatchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arachne_dispatch_latency_seconds",
			Help:    "Time spent inside the scheduler critical section per Get call",
			Buckets: prometheus.DefBuckets,
		},
	)

	TasksDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arachne_tasks_dropped_total",
			Help: "Total number of tasks dropped without being rescheduled",
		},
		[]string{"reason"},
	)

	HandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arachne_handler_errors_total",
			Help: "Total number of handler execution failures by scheme and kind",
		},
		[]string{"scheme", "kind"},
	)

	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arachne_handler_duration_seconds",
			Help:    "Handler execution duration in seconds by scheme",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scheme"},
	)

	EstimatorClampedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arachne_estimator_clamped_total",
			Help: "Total number of revisit-wait estimates clamped to a site bound",
		},
		[]string{"bound"},
	)
)

func init() {
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(SitesConfigured)
	prometheus.MustRegister(SiteEventsTotal)
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(DispatchEmptyTotal)
	prometheus.MustRegister(DispatchLatency)
	prometheus.MustRegister(TasksDroppedTotal)
	prometheus.MustRegister(HandlerErrorsTotal)
	prometheus.MustRegister(HandlerDuration)
	prometheus.MustRegister(EstimatorClampedTotal)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
