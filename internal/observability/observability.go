// Package observability provides Prometheus metrics for the recdeck client
// and the development collection server.
package observability

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/recdeck/recdeck/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Store     *metrics.StoreMetrics
	DevServer *metrics.DevServerMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	storeMetrics, err := metrics.NewStoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create store metrics: %w", err)
	}

	devServerMetrics, err := metrics.NewDevServerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create devserver metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Store:     storeMetrics,
		DevServer: devServerMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// WriteSnapshot renders the current state of every registered metric to w in
// the Prometheus text exposition format. Used by the interactive session's
// metrics command.
func (m *Metrics) WriteSnapshot(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return fmt.Errorf("failed to encode metric family %q: %w", family.GetName(), err)
		}
	}
	return nil
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m.Handler().ServeHTTP(w, r)
}
