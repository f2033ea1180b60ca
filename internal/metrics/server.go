package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 5 * time.Second

// NewMetricsServer returns the server exposing the dispatch metrics on a
// dedicated registry at /metrics.
func NewMetricsServer(address string) *http.Server {
	registry := initPrometheus(DefaultInstance())
	return newMetricsServer(address, registry)
}

func initPrometheus(customMetrics *Metrics) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	// Dedicated registry instead of prometheus.DefaultRegistry.
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	customMetrics.Register(registry)
	return registry
}

func newMetricsServer(address string, registry *prometheus.Registry) *http.Server {
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	mux := http.NewServeMux()
	// Scrapes of the dispatch metrics are themselves counted on the same registry.
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(registry, handler))

	return &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
