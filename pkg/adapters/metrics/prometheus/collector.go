package prometheus

import (
	"strconv"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus
type Collector struct {
	ordersCreated     prometheus.Counter
	ordersVanished    prometheus.Counter
	transitions       *prometheus.CounterVec
	jobsCompleted     *prometheus.CounterVec
	jobRetries        prometheus.Counter
	jobDuration       *prometheus.HistogramVec
	quotes            *prometheus.CounterVec
	quoteLatency      *prometheus.HistogramVec
	queueDepth        prometheus.Gauge
	subscribers       prometheus.Gauge
	workerPoolIdle    prometheus.Gauge
	workerPoolBusy    prometheus.Gauge
	workerPoolStopped prometheus.Gauge
}

// NewCollector creates a Prometheus collector registered with reg.
// Pass prometheus.DefaultRegisterer to expose through promhttp.Handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ordersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "swapd_orders_created_total",
				Help: "Total number of orders accepted at intake",
			},
		),
		ordersVanished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "swapd_orders_vanished_total",
				Help: "Jobs whose order no longer existed when the job ran",
			},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapd_order_transitions_total",
				Help: "Total number of persisted order status transitions",
			},
			[]string{"status"},
		),
		jobsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapd_jobs_completed_total",
				Help: "Total number of finished jobs by outcome and attempts used",
			},
			[]string{"outcome", "attempts"},
		),
		jobRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "swapd_job_retries_total",
				Help: "Total number of failed job attempts that were retried",
			},
		),
		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swapd_job_duration_seconds",
				Help:    "Job execution duration in seconds, retries included",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		quotes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapd_venue_quotes_total",
				Help: "Total number of venue quote requests",
			},
			[]string{"venue", "result"},
		),
		quoteLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swapd_venue_quote_latency_seconds",
				Help:    "Venue quote latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"venue"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapd_queue_depth",
				Help: "Jobs waiting or in flight",
			},
		),
		subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapd_order_subscribers",
				Help: "Open observer channels across all orders",
			},
		),
		workerPoolIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapd_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapd_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapd_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordOrderCreated counts an accepted order
func (c *Collector) RecordOrderCreated() {
	c.ordersCreated.Inc()
}

// RecordTransition counts a persisted status change
func (c *Collector) RecordTransition(status domain.OrderStatus) {
	c.transitions.WithLabelValues(string(status)).Inc()
}

// RecordJobCompleted records a finished job
func (c *Collector) RecordJobCompleted(outcome string, attempts int, duration time.Duration) {
	c.jobsCompleted.WithLabelValues(outcome, strconv.Itoa(attempts)).Inc()
	c.jobDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordJobRetry counts a failed attempt that will be retried
func (c *Collector) RecordJobRetry() {
	c.jobRetries.Inc()
}

// RecordOrderVanished counts a job whose order disappeared before it ran
func (c *Collector) RecordOrderVanished() {
	c.ordersVanished.Inc()
}

// RecordQuote records one venue quote request
func (c *Collector) RecordQuote(venue string, ok bool, duration time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.quotes.WithLabelValues(venue, result).Inc()
	c.quoteLatency.WithLabelValues(venue).Observe(duration.Seconds())
}

// RecordWorkerPoolStatus records worker pool status
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}

// SetQueueDepth sets the current job queue depth
func (c *Collector) SetQueueDepth(depth int64) {
	c.queueDepth.Set(float64(depth))
}

// SetSubscribers sets the number of open observer channels
func (c *Collector) SetSubscribers(count int) {
	c.subscribers.Set(float64(count))
}
