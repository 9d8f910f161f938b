package types

import "fmt"

// Reliability controls message delivery guarantees.
type Reliability int

const (
	// ReliabilityReliable retransmits lost messages.
	ReliabilityReliable Reliability = iota

	// ReliabilityBestEffort delivers without retransmission; drops are allowed.
	ReliabilityBestEffort
)

// String returns the string representation of the reliability kind.
func (r Reliability) String() string {
	switch r {
	case ReliabilityReliable:
		return "reliable"
	case ReliabilityBestEffort:
		return "best_effort"
	default:
		return "unknown"
	}
}

// Durability controls whether late-joining subscribers see past messages.
type Durability int

const (
	// DurabilityVolatile only delivers messages published after the subscription exists.
	DurabilityVolatile Durability = iota

	// DurabilityTransientLocal delivers the last retained message to late joiners.
	DurabilityTransientLocal
)

// String returns the string representation of the durability kind.
func (d Durability) String() string {
	switch d {
	case DurabilityVolatile:
		return "volatile"
	case DurabilityTransientLocal:
		return "transient_local"
	default:
		return "unknown"
	}
}

// QoSPolicy holds the concrete transport parameters of a subscription.
type QoSPolicy struct {
	Reliability Reliability
	Durability  Durability

	// Depth is the keep-last history depth. Zero lets the backend pick its default.
	Depth uint
}

// String returns a compact human-readable representation.
func (q QoSPolicy) String() string {
	return fmt.Sprintf("%s/%s/%d", q.Reliability, q.Durability, q.Depth)
}
