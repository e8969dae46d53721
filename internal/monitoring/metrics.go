// Package monitoring holds Prometheus instrumentation and the in-process
// request performance buffer.
package monitoring

import (
	"strconv"
	"sync"
	"time"

	"group-task-tracker/internal/entities"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records service metrics in Prometheus.
type Collector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	httpDuration     *prometheus.HistogramVec
	previews         *prometheus.CounterVec
	tasksApplied     prometheus.Counter
	aiDuration       *prometheus.HistogramVec
	previewsSwept    prometheus.Counter
	previewsInFlight prometheus.Gauge
}

// NewCollector creates a collector registering into reg (prometheus.DefaultRegisterer
// if nil) under namespace ("tasktracker" if empty).
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "tasktracker"
	}
	return &Collector{reg: reg, namespace: namespace}
}

func (c *Collector) ensureRegistered() {
	c.once.Do(func() {
		c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"})

		c.previews = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "distribution",
			Name:      "previews_total",
			Help:      "Distribution previews that reached a terminal status, by method and status.",
		}, []string{"method", "status"})

		c.tasksApplied = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "distribution",
			Name:      "tasks_applied_total",
			Help:      "Tasks assigned by applying distribution previews.",
		})

		c.aiDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Chat-completion latency by outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"outcome"})

		c.previewsSwept = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "previews_swept_total",
			Help:      "Expired distribution previews deleted by the sweeper.",
		})

		c.previewsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: "distribution",
			Name:      "previews_in_flight",
			Help:      "Previews currently being generated.",
		})

		c.reg.MustRegister(c.httpDuration)
		c.reg.MustRegister(c.previews)
		c.reg.MustRegister(c.tasksApplied)
		c.reg.MustRegister(c.aiDuration)
		c.reg.MustRegister(c.previewsSwept)
		c.reg.MustRegister(c.previewsInFlight)
	})
}

// ObserveHTTPRequest records one handled request.
func (c *Collector) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	c.ensureRegistered()
	c.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// PreviewStarted marks a preview entering generation.
func (c *Collector) PreviewStarted() {
	c.ensureRegistered()
	c.previewsInFlight.Inc()
}

// PreviewFinished records a preview reaching a terminal status.
func (c *Collector) PreviewFinished(method entities.DistributionMethod, status entities.PreviewStatus) {
	c.ensureRegistered()
	c.previewsInFlight.Dec()
	c.previews.WithLabelValues(string(method), string(status)).Inc()
}

// TasksApplied adds n applied assignments.
func (c *Collector) TasksApplied(n int) {
	c.ensureRegistered()
	c.tasksApplied.Add(float64(n))
}

// PreviewsSwept adds n deleted previews.
func (c *Collector) PreviewsSwept(n int64) {
	c.ensureRegistered()
	c.previewsSwept.Add(float64(n))
}

// ObserveAIRequest records a chat-completion call.
func (c *Collector) ObserveAIRequest(outcome string, elapsed time.Duration) {
	c.ensureRegistered()
	c.aiDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
