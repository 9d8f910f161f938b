package types

import "slices"

// RobotCommand is the decoded form of a RobotCmd.
//
// JointNames, Positions, Velocities and Efforts always have the same length.
type RobotCommand struct {
	Yaw        float64
	GripperCmd float64
	Timestamp  float64

	ChassisLinearVel  [3]float64
	ChassisAngularVel [3]float64

	JointNames []string
	Positions  []float64
	Velocities []float64
	Efforts    []float64
}

// NumJoints returns the arm joint count.
func (c RobotCommand) NumJoints() int {
	return len(c.JointNames)
}

// Clone returns a deep copy whose slices do not alias c.
func (c RobotCommand) Clone() RobotCommand {
	out := c
	out.JointNames = cloneNonNil(c.JointNames)
	out.Positions = cloneNonNil(c.Positions)
	out.Velocities = cloneNonNil(c.Velocities)
	out.Efforts = cloneNonNil(c.Efforts)

	return out
}

// Outputs is the set of values the host reads after each poll.
type Outputs struct {
	RobotCommand

	// MessageReceived is true only for a poll that took a message.
	MessageReceived bool

	// ExecOut is the one-shot "new data" trigger; true only on the receiving poll.
	ExecOut bool
}

// ZeroOutputs returns the reset value: zero scalars and vectors, empty arm slices.
func ZeroOutputs() Outputs {
	return Outputs{
		RobotCommand: RobotCommand{
			JointNames: []string{},
			Positions:  []float64{},
			Velocities: []float64{},
			Efforts:    []float64{},
		},
	}
}

// Clone returns a deep copy of o.
func (o Outputs) Clone() Outputs {
	out := o
	out.RobotCommand = o.RobotCommand.Clone()

	return out
}

// cloneNonNil clones s, mapping nil to an empty slice.
func cloneNonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return slices.Clone(s)
}
