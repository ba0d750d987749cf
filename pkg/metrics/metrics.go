package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every collector exported by the services
const Namespace = "gocommerce"

// OrderMetrics holds collectors for the order lifecycle.
// A nil *OrderMetrics is valid and records nothing.
type OrderMetrics struct {
	transitions       *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	shortfalls        prometheus.Counter
	sideEffectFailure *prometheus.CounterVec
	conflictRetries   prometheus.Counter
	duration          *prometheus.HistogramVec
}

// NewOrderMetrics registers order collectors on reg
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	factory := promauto.With(reg)
	return &OrderMetrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Accepted state transitions per dimension and target state.",
		}, []string{"dimension", "to"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "orders",
			Name:      "rejections_total",
			Help:      "Rejected order operations by error code.",
		}, []string{"code"}),
		shortfalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "inventory",
			Name:      "shortfalls_total",
			Help:      "Reservations aborted for insufficient stock.",
		}),
		sideEffectFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "orders",
			Name:      "side_effect_failures_total",
			Help:      "Post-commit side effects that failed (events, ledger sync).",
		}, []string{"kind"}),
		conflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "orders",
			Name:      "conflict_retries_total",
			Help:      "Writes retried after a concurrent modification.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "orders",
			Name:      "operation_duration_seconds",
			Help:      "Latency of order lifecycle operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *OrderMetrics) Transition(dimension, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(dimension, to).Inc()
}

func (m *OrderMetrics) Rejection(code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(code).Inc()
}

func (m *OrderMetrics) Shortfall() {
	if m == nil {
		return
	}
	m.shortfalls.Inc()
}

func (m *OrderMetrics) SideEffectFailure(kind string) {
	if m == nil {
		return
	}
	m.sideEffectFailure.WithLabelValues(kind).Inc()
}

func (m *OrderMetrics) ConflictRetry() {
	if m == nil {
		return
	}
	m.conflictRetries.Inc()
}

// ObserveSince records the elapsed time of operation
func (m *OrderMetrics) ObserveSince(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// HTTPMetrics instruments gin routes
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics registers HTTP collectors on reg for service
func NewHTTPMetrics(reg prometheus.Registerer, service string) *HTTPMetrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": service}
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests processed.",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "Request latency in seconds.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Middleware records request counts and latency by route template
func (h *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		h.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		h.latency.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the prometheus text format
func Handler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	h := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
