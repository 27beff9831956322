package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bulkmail"

// Metrics holds the Prometheus collectors for the service.
// Each instance owns its registry so tests can build many side by side.
type Metrics struct {
	registry *prometheus.Registry

	batchesTotal     *prometheus.CounterVec
	deliveriesTotal  *prometheus.CounterVec
	deliverySeconds  prometheus.Histogram
	requestsTotal    *prometheus.CounterVec
	requestSeconds   *prometheus.HistogramVec
	querySeconds     *prometheus.HistogramVec
	transportHealthy prometheus.Gauge
}

// New creates and registers all collectors, including Go runtime and process stats.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Recorded batches by final status.",
		}, []string{"status"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Per-recipient delivery attempts by result.",
		}, []string{"result"}),
		deliverySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time spent handing one message to the transport.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		querySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database statement latency by statement label.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"statement"}),
		transportHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transport_up",
			Help:      "1 when the mail transport was built successfully at last attempt.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.batchesTotal,
		m.deliveriesTotal,
		m.deliverySeconds,
		m.requestsTotal,
		m.requestSeconds,
		m.querySeconds,
		m.transportHealthy,
	)
	return m
}

// ObserveBatch counts a recorded batch.
func (m *Metrics) ObserveBatch(status string) {
	m.batchesTotal.WithLabelValues(status).Inc()
}

// ObserveDelivery counts one delivery attempt and its latency.
func (m *Metrics) ObserveDelivery(ok bool, d time.Duration) {
	result := "failed"
	if ok {
		result = "sent"
	}
	m.deliveriesTotal.WithLabelValues(result).Inc()
	m.deliverySeconds.Observe(d.Seconds())
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestSeconds.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveQuery records one database statement.
func (m *Metrics) ObserveQuery(label string, d time.Duration) {
	m.querySeconds.WithLabelValues(label).Observe(d.Seconds())
}

// SetTransportUp records whether the last transport build succeeded.
func (m *Metrics) SetTransportUp(up bool) {
	if up {
		m.transportHealthy.Set(1)
		return
	}
	m.transportHealthy.Set(0)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
