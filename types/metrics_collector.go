package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// The registry may call RegistryMetrics from several goroutines, so
// implementations must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	LifecycleMetrics
	PollMetrics
	RegistryMetrics
}

// LifecycleMetrics defines metrics for subscription resource lifecycle operations.
type LifecycleMetrics interface {
	// RecordBind records a bind attempt.
	//
	// Parameters:
	//   - success: true if node and subscription were created
	//   - duration: Time taken in seconds
	RecordBind(success bool, duration float64)

	// RecordRecreate records a teardown-and-rebuild triggered by a configuration change.
	//
	// Parameters:
	//   - fields: Names of the configuration fields that changed
	RecordRecreate(fields []string)

	// RecordTeardownFailure records a failed finalize step.
	//
	// Parameters:
	//   - stage: "subscription", "node" or "context"
	RecordTeardownFailure(stage string)

	// SetBound sets whether a subscription is currently live (gauge metric).
	SetBound(bound bool)
}

// PollMetrics defines metrics for per-tick poll outcomes.
type PollMetrics interface {
	// RecordPoll records a poll outcome.
	//
	// Parameters:
	//   - result: Poll outcome
	//   - reason: Error classification for PollError ("connectivity", "transport", "codec"), "" otherwise
	RecordPoll(result PollResult, reason string)

	// RecordJointCount sets the arm joint count of the last decoded command (gauge metric).
	RecordJointCount(count int)
}

// RegistryMetrics defines metrics for the shared context registry.
type RegistryMetrics interface {
	// RecordContextOpen records a shared context being opened.
	//
	// Parameters:
	//   - success: true if the backend session was created
	RecordContextOpen(success bool)

	// RecordContextClose records a shared context being closed after its last release.
	RecordContextClose()

	// SetContextsOpen sets the number of open shared contexts (gauge metric).
	SetContextsOpen(count int)
}
