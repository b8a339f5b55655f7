package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DevServerMetrics contains Prometheus metrics for the development collection server
type DevServerMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	recordsGauge    prometheus.Gauge
}

// NewDevServerMetrics creates and registers new devserver metrics
func NewDevServerMetrics(registry *prometheus.Registry) (*DevServerMetrics, error) {
	m := &DevServerMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DevServerMetrics) initMetrics() error {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devserver_requests_total",
			Help: "Total number of collection API requests handled",
		},
		[]string{"method", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devserver_request_duration_seconds",
			Help:    "Time taken to handle collection API requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"method"},
	)

	m.recordsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "devserver_records",
			Help: "Current number of records in the backing store",
		},
	)

	return nil
}

// Describe implements the Collector interface
func (m *DevServerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.recordsGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *DevServerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.recordsGauge.Collect(ch)
}

// RecordRequest increments the request counter
func (m *DevServerMetrics) RecordRequest(method, status string) {
	m.requestsTotal.WithLabelValues(method, status).Inc()
}

// RecordRequestDuration observes request handling duration in seconds
func (m *DevServerMetrics) RecordRequestDuration(method string, seconds float64) {
	m.requestDuration.WithLabelValues(method).Observe(seconds)
}

// SetRecordCount updates the backing store record count gauge
func (m *DevServerMetrics) SetRecordCount(n int) {
	m.recordsGauge.Set(float64(n))
}
