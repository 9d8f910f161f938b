// Package decoder turns raw RobotCmd records into the flat RobotCommand outputs.
package decoder

import (
	"strconv"

	"github.com/arloliu/robotcmd/types"
)

// JointNamePrefix is the prefix of synthesized joint names.
const JointNamePrefix = "joint_"

// Decode converts raw into a RobotCommand.
//
// Decode never fails. Malformed arm data is padded rather than rejected: the
// joint count is the first non-zero length among joint names, positions,
// velocities and effort of the last trajectory point, missing names are
// synthesized as "joint_<index>" and missing numeric entries are zero. The four
// arm slices always have exactly NumJoints elements and are never nil.
//
// Parameters:
//   - raw: Wire record; nil decodes to the zero command
//
// Returns:
//   - types.RobotCommand: Decoded command sharing no memory with raw
func Decode(raw *types.RobotCmd) types.RobotCommand {
	out := types.ZeroOutputs().RobotCommand
	if raw == nil {
		return out
	}

	out.Yaw = float64(raw.Yaw)
	out.GripperCmd = float64(raw.GripperCmd)
	out.Timestamp = raw.Header.Stamp.Seconds()
	out.ChassisLinearVel = raw.ChassisCmd.Linear.Array()
	out.ChassisAngularVel = raw.ChassisCmd.Angular.Array()

	points := raw.ArmCmd.Points
	if len(points) == 0 {
		return out
	}

	last := points[len(points)-1]
	names := raw.ArmCmd.JointNames

	n := jointCount(len(names), len(last.Positions), len(last.Velocities), len(last.Effort))
	if n == 0 {
		return out
	}

	out.JointNames = make([]string, n)
	copied := copy(out.JointNames, names)
	for i := copied; i < n; i++ {
		out.JointNames[i] = JointNamePrefix + strconv.Itoa(i)
	}

	out.Positions = padded(last.Positions, n)
	out.Velocities = padded(last.Velocities, n)
	out.Efforts = padded(last.Effort, n)

	return out
}

// jointCount returns the first non-zero length, or 0.
func jointCount(lengths ...int) int {
	for _, l := range lengths {
		if l > 0 {
			return l
		}
	}

	return 0
}

// padded copies up to n values of src into a fresh slice of length n.
func padded(src []float64, n int) []float64 {
	dst := make([]float64, n)
	copy(dst, src)

	return dst
}
