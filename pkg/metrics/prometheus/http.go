package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/srdjan/ns-http-server/pkg/metrics"
)

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsRejected prometheus.Counter
	connectionsEvicted  prometheus.Counter
	connectionsClosed   prometheus.Counter
	connectionsActive   prometheus.Gauge
	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	bytesSent           prometheus.Counter
	transferBytes       prometheus.Histogram
	transferDuration    prometheus.Histogram
	errors              *prometheus.CounterVec
}

// NewHTTPMetrics creates a new Prometheus-backed HTTPMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHTTPMetrics() metrics.HTTPMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &httpMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nshttpd_connections_accepted_total",
				Help: "Total number of client connections accepted",
			},
		),
		connectionsRejected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nshttpd_connections_rejected_total",
				Help: "Total number of connections closed immediately because the connection table was full",
			},
		),
		connectionsEvicted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nshttpd_connections_evicted_total",
				Help: "Total number of connections evicted for exceeding the receive timeout",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nshttpd_connections_closed_total",
				Help: "Total number of connections torn down",
			},
		),
		connectionsActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nshttpd_connections_active",
				Help: "Current number of connections in Receiving or Sending state",
			},
		),
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nshttpd_requests_total",
				Help: "Total number of completed requests by method and status code",
			},
			[]string{"method", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nshttpd_request_duration_milliseconds",
				Help: "Time from accept to terminal response in milliseconds",
				Buckets: []float64{
					1,     // 1ms - cached 304s
					5,     // 5ms
					10,    // 10ms
					50,    // 50ms - small files
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s - large files over slow links
					30000, // 30s - receive timeout ceiling
				},
			},
			[]string{"method"},
		),
		bytesSent: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nshttpd_bytes_sent_total",
				Help: "Total bytes written to client sockets, response heads included",
			},
		),
		transferBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "nshttpd_transfer_bytes",
				Help: "Distribution of completed file transfer sizes",
				Buckets: []float64{
					1024,      // 1KB - stylesheets, small pages
					16384,     // 16KB
					65536,     // 64KB - one default chunk
					262144,    // 256KB
					1048576,   // 1MB - images
					16777216,  // 16MB
					134217728, // 128MB - video
				},
			},
		),
		transferDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "nshttpd_transfer_duration_milliseconds",
				Help: "Time from entering the Sending state to the final chunk in milliseconds",
				Buckets: []float64{
					1,      // 1ms - single chunk files
					10,     // 10ms
					100,    // 100ms
					1000,   // 1s
					10000,  // 10s
					60000,  // 1m
					600000, // 10m - large media over throttled links
				},
			},
		),
		errors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nshttpd_errors_total",
				Help: "Total handled errors by taxonomy kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *httpMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *httpMetrics) RecordConnectionRejected() {
	m.connectionsRejected.Inc()
}

func (m *httpMetrics) RecordConnectionEvicted() {
	m.connectionsEvicted.Inc()
}

func (m *httpMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *httpMetrics) SetActiveConnections(count int32) {
	m.connectionsActive.Set(float64(count))
}

func (m *httpMetrics) RecordRequest(method string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(float64(duration.Milliseconds()))
}

func (m *httpMetrics) RecordBytesSent(bytes uint64) {
	m.bytesSent.Add(float64(bytes))
}

func (m *httpMetrics) RecordTransfer(bytes uint64, duration time.Duration) {
	m.transferBytes.Observe(float64(bytes))
	m.transferDuration.Observe(float64(duration.Milliseconds()))
}

func (m *httpMetrics) RecordError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}
