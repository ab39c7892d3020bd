package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics, registered explicitly from the
// composition root (no init()).
var (
	IndicesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "elastimock",
			Name:      "indices_total",
			Help:      "Number of indices currently held by the engine",
		},
	)

	DocumentOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elastimock",
			Name:      "document_operations_total",
			Help:      "Total document write operations by result",
		},
		[]string{"operation", "result"},
	)

	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "elastimock",
			Name:      "search_queries_total",
			Help:      "Total search and count requests by status",
		},
		[]string{"endpoint", "status"},
	)
)

// RegisterEngineMetrics registers the engine metric collectors.
func RegisterEngineMetrics() {
	prometheus.MustRegister(IndicesTotal)
	prometheus.MustRegister(DocumentOperationsTotal)
	prometheus.MustRegister(SearchQueriesTotal)
}
