package types

// State represents the controller lifecycle state.
//
// States follow this progression:
//
//	StateIdle → StateActive → (Reset) → StateIdle → StateActive → ... → StateReleased
//
// StateReleased is terminal.
type State int

const (
	// StateIdle indicates no subscription is bound (never configured, or reset).
	StateIdle State = iota

	// StateActive indicates a subscription is bound and polled each cycle.
	StateActive

	// StateReleased indicates the controller released all resources.
	StateReleased
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateActive:
		return "Active"
	case StateReleased:
		return "Released"
	default:
		return "Unknown"
	}
}

// ResourceState represents the state of the node/subscription pair owned by a lifecycle manager.
//
//	ResourceUnbound → ResourceBound → ResourceUnbound → ... → ResourceReleased
//	ResourceUnbound → ResourceError (bind failed, nothing held) → ResourceBound
type ResourceState int

const (
	// ResourceUnbound indicates no node or subscription is held.
	ResourceUnbound ResourceState = iota

	// ResourceBound indicates node and subscription are live.
	ResourceBound

	// ResourceError indicates the last bind failed; partial handles were released.
	ResourceError

	// ResourceReleased indicates the shared context was released. Terminal.
	ResourceReleased
)

// String returns the string representation of the resource state.
func (s ResourceState) String() string {
	switch s {
	case ResourceUnbound:
		return "Unbound"
	case ResourceBound:
		return "Bound"
	case ResourceError:
		return "Error"
	case ResourceReleased:
		return "Released"
	default:
		return "Unknown"
	}
}

// PollResult is the outcome of a single non-blocking take.
type PollResult int

const (
	// PollNoneAvailable indicates no message was queued.
	PollNoneAvailable PollResult = iota

	// PollReceived indicates one message was taken.
	PollReceived

	// PollError indicates the transport failed to deliver.
	PollError
)

// String returns the string representation of the poll result.
func (r PollResult) String() string {
	switch r {
	case PollNoneAvailable:
		return "none"
	case PollReceived:
		return "received"
	case PollError:
		return "error"
	default:
		return "unknown"
	}
}
