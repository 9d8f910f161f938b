package types

import "errors"

// Sentinel errors for the robotcmd library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Error Naming Convention:
//   - Use descriptive names with Err prefix
//   - Group by component (Controller, Lifecycle, Transport, Codec)
//   - Use consistent messages across similar error types

// Controller errors - Public API errors returned by the Controller.
var (
	// ErrInvalidConfig is returned when the runtime configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRegistryRequired is returned when the context registry is nil.
	ErrRegistryRequired = errors.New("context registry is required")

	// ErrCodecRequired is returned when no codec is configured.
	ErrCodecRequired = errors.New("codec is required")

	// ErrReleased is returned when Poll is called after Release.
	ErrReleased = errors.New("controller released")
)

// Lifecycle errors - Resource creation and teardown outcomes.
var (
	// ErrConfiguration indicates that creating the context, node or subscription failed.
	//
	// Fatal for the current poll only: the controller retries the bind on the next poll.
	ErrConfiguration = errors.New("subscription configuration failed")

	// ErrTeardown indicates that finalizing a subscription, node or context failed.
	//
	// Teardown errors are logged and never block progress.
	ErrTeardown = errors.New("teardown failed")

	// ErrNotBound is returned when polling a resource that holds no subscription.
	ErrNotBound = errors.New("subscription not bound")
)

// Transport errors - Returned by transport backends.
var (
	// ErrNoData signals that no message is queued. It is a normal poll outcome, not a failure.
	ErrNoData = errors.New("no message available")

	// ErrInvalidName is returned when a topic, namespace or node name cannot be resolved.
	ErrInvalidName = errors.New("invalid name")

	// ErrHandleClosed is returned when using a node, subscription or session after it was closed.
	ErrHandleClosed = errors.New("handle closed")
)

// Codec errors.
var (
	// ErrUnknownCodec is returned when a codec name is not registered.
	ErrUnknownCodec = errors.New("unknown codec")
)
