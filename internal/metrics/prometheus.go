package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/robotcmd/types"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "robotcmd"

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// PrometheusCollector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Lifecycle metrics
	binds            *prometheus.CounterVec
	bindDuration     prometheus.Histogram
	recreates        prometheus.Counter
	recreateFields   *prometheus.CounterVec
	teardownFailures *prometheus.CounterVec
	bound            prometheus.Gauge

	// Poll metrics
	polls      *prometheus.CounterVec
	jointCount prometheus.Gauge

	// Registry metrics
	contextOpens  *prometheus.CounterVec
	contextCloses prometheus.Counter
	contextsOpen  prometheus.Gauge
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "robotcmd" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.binds = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "binds_total",
			Help:      "Total subscription bind attempts by result (success|failure).",
		}, []string{"result"})

		p.bindDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "bind_duration_seconds",
			Help:      "Time to create a node and subscription in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		})

		p.recreates = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "recreates_total",
			Help:      "Total subscription recreations triggered by configuration changes.",
		})

		p.recreateFields = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "recreate_field_changes_total",
			Help:      "Configuration field changes that triggered a recreation, by field.",
		}, []string{"field"})

		p.teardownFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "teardown_failures_total",
			Help:      "Failed finalize steps by stage (subscription,node,context).",
		}, []string{"stage"})

		p.bound = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "bound",
			Help:      "Whether a subscription is live (1=bound,0=unbound).",
		})

		p.polls = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "poll",
			Name:      "results_total",
			Help:      "Poll outcomes by result (received,none,error) and error reason.",
		}, []string{"result", "reason"})

		p.jointCount = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "poll",
			Name:      "arm_joints",
			Help:      "Arm joint count of the last decoded command.",
		})

		p.contextOpens = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "context_opens_total",
			Help:      "Shared transport context open attempts by result.",
		}, []string{"result"})

		p.contextCloses = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "context_closes_total",
			Help:      "Shared transport contexts closed after their last release.",
		})

		p.contextsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "contexts_open",
			Help:      "Number of open shared transport contexts.",
		})

		p.reg.MustRegister(p.binds)
		p.reg.MustRegister(p.bindDuration)
		p.reg.MustRegister(p.recreates)
		p.reg.MustRegister(p.recreateFields)
		p.reg.MustRegister(p.teardownFailures)
		p.reg.MustRegister(p.bound)
		p.reg.MustRegister(p.polls)
		p.reg.MustRegister(p.jointCount)
		p.reg.MustRegister(p.contextOpens)
		p.reg.MustRegister(p.contextCloses)
		p.reg.MustRegister(p.contextsOpen)
	})
}

// LifecycleMetrics implementation

// RecordBind counts a bind attempt and observes its duration.
func (p *PrometheusCollector) RecordBind(success bool, duration float64) {
	p.ensureRegistered()
	p.binds.WithLabelValues(resultLabel(success)).Inc()
	p.bindDuration.Observe(duration)
}

// RecordRecreate counts a recreation and each field that changed.
func (p *PrometheusCollector) RecordRecreate(fields []string) {
	p.ensureRegistered()
	p.recreates.Inc()
	for _, f := range fields {
		p.recreateFields.WithLabelValues(f).Inc()
	}
}

// RecordTeardownFailure counts a failed finalize step.
func (p *PrometheusCollector) RecordTeardownFailure(stage string) {
	p.ensureRegistered()
	p.teardownFailures.WithLabelValues(stage).Inc()
}

// SetBound sets the bound gauge.
func (p *PrometheusCollector) SetBound(bound bool) {
	p.ensureRegistered()
	if bound {
		p.bound.Set(1)
	} else {
		p.bound.Set(0)
	}
}

// PollMetrics implementation

// RecordPoll counts a poll outcome.
func (p *PrometheusCollector) RecordPoll(result types.PollResult, reason string) {
	p.ensureRegistered()
	p.polls.WithLabelValues(result.String(), reason).Inc()
}

// RecordJointCount sets the arm joint gauge.
func (p *PrometheusCollector) RecordJointCount(count int) {
	p.ensureRegistered()
	p.jointCount.Set(float64(count))
}

// RegistryMetrics implementation

// RecordContextOpen counts a context open attempt.
func (p *PrometheusCollector) RecordContextOpen(success bool) {
	p.ensureRegistered()
	p.contextOpens.WithLabelValues(resultLabel(success)).Inc()
}

// RecordContextClose counts a context close.
func (p *PrometheusCollector) RecordContextClose() {
	p.ensureRegistered()
	p.contextCloses.Inc()
}

// SetContextsOpen sets the open contexts gauge.
func (p *PrometheusCollector) SetContextsOpen(count int) {
	p.ensureRegistered()
	p.contextsOpen.Set(float64(count))
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}
