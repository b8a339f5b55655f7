// Package metrics provides Prometheus metric collectors for recdeck services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics contains Prometheus metrics for record store client operations
type StoreMetrics struct {
	registry *prometheus.Registry

	// Remote operation metrics
	operationsTotal   *prometheus.CounterVec
	operationErrors   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// List cache metrics
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter

	// Client-side validation rejections (blocked before the network)
	validationRejectsTotal *prometheus.CounterVec
}

// NewStoreMetrics creates and registers new store client metrics
func NewStoreMetrics(registry *prometheus.Registry) (*StoreMetrics, error) {
	m := &StoreMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *StoreMetrics) initMetrics() error {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"operation", "status"}, // operation: list, create, update, delete; status: success, error
	)

	m.operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of record store operation errors",
		},
		[]string{"operation", "error_type"}, // error_type: network, status, decode
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "store_operation_duration_seconds",
			Help: "Time taken by record store operations",
			// Exponential buckets from 10ms to ~10s cover a local devserver as
			// well as a slow remote collection endpoint
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"operation"},
	)

	m.cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "store_list_cache_hits_total",
			Help: "Total number of list responses served from cache",
		},
	)

	m.cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "store_list_cache_misses_total",
			Help: "Total number of list requests that went to the remote store",
		},
	)

	m.validationRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_validation_rejects_total",
			Help: "Total number of records rejected client-side before any network call",
		},
		[]string{"operation"},
	)

	return nil
}

// Describe implements the Collector interface
func (m *StoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.operationErrors.Describe(ch)
	m.operationDuration.Describe(ch)
	m.cacheHitsTotal.Describe(ch)
	m.cacheMissesTotal.Describe(ch)
	m.validationRejectsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *StoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.operationErrors.Collect(ch)
	m.operationDuration.Collect(ch)
	m.cacheHitsTotal.Collect(ch)
	m.cacheMissesTotal.Collect(ch)
	m.validationRejectsTotal.Collect(ch)
}

// RecordOperation increments the operation counter for the given status
func (m *StoreMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordOperationError increments the error counter for the given error type
func (m *StoreMetrics) RecordOperationError(operation, errorType string) {
	m.operationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordOperationDuration observes the duration of an operation in seconds
func (m *StoreMetrics) RecordOperationDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordCacheHit increments the list cache hit counter
func (m *StoreMetrics) RecordCacheHit() {
	m.cacheHitsTotal.Inc()
}

// RecordCacheMiss increments the list cache miss counter
func (m *StoreMetrics) RecordCacheMiss() {
	m.cacheMissesTotal.Inc()
}

// RecordValidationReject increments the client-side validation reject counter
func (m *StoreMetrics) RecordValidationReject(operation string) {
	m.validationRejectsTotal.WithLabelValues(operation).Inc()
}
