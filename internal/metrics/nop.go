// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/arloliu/robotcmd/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	ctrl, err := robotcmd.NewController(&cfg, registry, robotcmd.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// LifecycleMetrics implementation

// RecordBind discards the bind metric.
func (n *NopMetrics) RecordBind(_ /* success */ bool, _ /* duration */ float64) {
	// No-op
}

// RecordRecreate discards the recreate metric.
func (n *NopMetrics) RecordRecreate(_ /* fields */ []string) {
	// No-op
}

// RecordTeardownFailure discards the teardown failure metric.
func (n *NopMetrics) RecordTeardownFailure(_ /* stage */ string) {
	// No-op
}

// SetBound discards the bound gauge.
func (n *NopMetrics) SetBound(_ /* bound */ bool) {
	// No-op
}

// PollMetrics implementation

// RecordPoll discards the poll metric.
func (n *NopMetrics) RecordPoll(_ /* result */ types.PollResult, _ /* reason */ string) {
	// No-op
}

// RecordJointCount discards the joint count gauge.
func (n *NopMetrics) RecordJointCount(_ /* count */ int) {
	// No-op
}

// RegistryMetrics implementation

// RecordContextOpen discards the context open metric.
func (n *NopMetrics) RecordContextOpen(_ /* success */ bool) {
	// No-op
}

// RecordContextClose discards the context close metric.
func (n *NopMetrics) RecordContextClose() {
	// No-op
}

// SetContextsOpen discards the open contexts gauge.
func (n *NopMetrics) SetContextsOpen(_ /* count */ int) {
	// No-op
}
