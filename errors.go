package robotcmd

import "github.com/arloliu/robotcmd/types"

// Sentinel errors returned by the Controller.
//
// They are re-exported from the types package so callers can match them with
// errors.Is without importing types.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrRegistryRequired is returned when the context registry is nil.
	ErrRegistryRequired = types.ErrRegistryRequired

	// ErrCodecRequired is returned when no codec is configured.
	ErrCodecRequired = types.ErrCodecRequired

	// ErrReleased is returned when Poll is called after Release.
	ErrReleased = types.ErrReleased

	// ErrConfiguration is returned from Poll when the context, node or subscription could not be created.
	ErrConfiguration = types.ErrConfiguration

	// ErrTeardown wraps finalize failures. They are logged, never returned from Poll.
	ErrTeardown = types.ErrTeardown

	// ErrNotBound is returned when polling without a live subscription.
	ErrNotBound = types.ErrNotBound

	// ErrNoData is the transport "nothing queued" signal.
	ErrNoData = types.ErrNoData

	// ErrInvalidName is returned when a topic, namespace or node name cannot be resolved.
	ErrInvalidName = types.ErrInvalidName

	// ErrHandleClosed is returned when using a transport handle after it was closed.
	ErrHandleClosed = types.ErrHandleClosed

	// ErrUnknownCodec is returned when a codec name is not registered.
	ErrUnknownCodec = types.ErrUnknownCodec
)
