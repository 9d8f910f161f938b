package robotcmd

import "github.com/arloliu/robotcmd/types"

// Re-export types from the types package.
//
// Internal packages depend on types rather than on the root package; the
// aliases give callers robotcmd.SubscriptionConfig, robotcmd.Outputs and so on
// without a second import.
type (
	State              = types.State
	ResourceState      = types.ResourceState
	PollResult         = types.PollResult
	SubscriptionConfig = types.SubscriptionConfig
	QoSPolicy          = types.QoSPolicy
	Reliability        = types.Reliability
	Durability         = types.Durability
	RobotCmd           = types.RobotCmd
	RobotCommand       = types.RobotCommand
	Outputs            = types.Outputs
)

// Re-export interfaces from the types package for convenience.
type (
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export State constants from the types package.
const (
	StateIdle     = types.StateIdle
	StateActive   = types.StateActive
	StateReleased = types.StateReleased
)

// Re-export PollResult constants from the types package.
const (
	PollNoneAvailable = types.PollNoneAvailable
	PollReceived      = types.PollReceived
	PollError         = types.PollError
)

// ZeroOutputs returns the outputs a controller reports after Reset.
func ZeroOutputs() Outputs {
	return types.ZeroOutputs()
}
