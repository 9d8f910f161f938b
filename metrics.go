package robotcmd

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/robotcmd/internal/metrics"
)

// NewPrometheusMetrics creates a MetricsCollector that records to reg.
//
// Collectors register lazily on first use. The same collector can be passed to
// both NewController and NewRegistry.
//
// Parameters:
//   - reg: Prometheus registerer (prometheus.DefaultRegisterer if nil)
//   - namespace: Metric namespace ("robotcmd" if empty)
//
// Returns:
//   - MetricsCollector: Prometheus-backed collector
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}
