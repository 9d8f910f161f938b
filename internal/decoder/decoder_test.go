package decoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/robotcmd/types"
)

func requireArmLen(t *testing.T, cmd types.RobotCommand, n int) {
	t.Helper()
	require.NotNil(t, cmd.JointNames)
	require.NotNil(t, cmd.Positions)
	require.NotNil(t, cmd.Velocities)
	require.NotNil(t, cmd.Efforts)
	require.Len(t, cmd.JointNames, n)
	require.Len(t, cmd.Positions, n)
	require.Len(t, cmd.Velocities, n)
	require.Len(t, cmd.Efforts, n)
	require.Equal(t, n, cmd.NumJoints())
}

func TestDecode_Scalars(t *testing.T) {
	raw := &types.RobotCmd{
		Header:     types.Header{Stamp: types.Time{Sec: 12, Nanosec: 500_000_000}},
		Yaw:        0.25,
		GripperCmd: 1.5,
		ChassisCmd: types.Twist{
			Linear:  types.Vector3{X: 1, Y: 2, Z: 3},
			Angular: types.Vector3{X: -1, Y: -2, Z: -3},
		},
	}

	got := Decode(raw)
	require.InDelta(t, 12.5, got.Timestamp, 1e-9)
	require.InDelta(t, 0.25, got.Yaw, 1e-7)
	require.InDelta(t, 1.5, got.GripperCmd, 1e-7)
	require.Equal(t, [3]float64{1, 2, 3}, got.ChassisLinearVel)
	require.Equal(t, [3]float64{-1, -2, -3}, got.ChassisAngularVel)
}

func TestDecode_Nil(t *testing.T) {
	got := Decode(nil)
	requireArmLen(t, got, 0)
	require.Zero(t, got.Yaw)
	require.Zero(t, got.Timestamp)
}

func TestDecode_EmptyTrajectory(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{JointNames: []string{"a", "b"}},
	}

	requireArmLen(t, Decode(raw), 0)
}

func TestDecode_AllSequencesEmpty(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{Points: []types.JointTrajectoryPoint{{}}},
	}

	requireArmLen(t, Decode(raw), 0)
}

func TestDecode_Padding(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{
			JointNames: []string{"shoulder", "elbow"},
			Points: []types.JointTrajectoryPoint{{
				Positions:  []float64{0.1, 0.2},
				Velocities: []float64{1.0},
			}},
		},
	}

	got := Decode(raw)
	requireArmLen(t, got, 2)
	require.Equal(t, []string{"shoulder", "elbow"}, got.JointNames)
	require.Equal(t, []float64{0.1, 0.2}, got.Positions)
	require.Equal(t, []float64{1.0, 0.0}, got.Velocities)
	require.Equal(t, []float64{0.0, 0.0}, got.Efforts)
}

func TestDecode_NoNames(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{
			Points: []types.JointTrajectoryPoint{{
				Positions: []float64{1, 2, 3},
			}},
		},
	}

	got := Decode(raw)
	requireArmLen(t, got, 3)
	require.Equal(t, []string{"joint_0", "joint_1", "joint_2"}, got.JointNames)
	require.Equal(t, []float64{1, 2, 3}, got.Positions)
}

func TestDecode_FewerNamesThanJoints(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{
			JointNames: []string{"base"},
			Points: []types.JointTrajectoryPoint{{
				Effort: []float64{5, 6, 7},
			}},
		},
	}

	// names win the joint count; extra effort values are dropped
	got := Decode(raw)
	requireArmLen(t, got, 1)
	require.Equal(t, []string{"base"}, got.JointNames)
	require.Equal(t, []float64{5}, got.Efforts)
}

func TestDecode_VelocitiesDetermineCount(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{
			Points: []types.JointTrajectoryPoint{{
				Velocities: []float64{9, 8},
				Effort:     []float64{1, 2, 3, 4},
			}},
		},
	}

	got := Decode(raw)
	requireArmLen(t, got, 2)
	require.Equal(t, []string{"joint_0", "joint_1"}, got.JointNames)
	require.Equal(t, []float64{0, 0}, got.Positions)
	require.Equal(t, []float64{1, 2}, got.Efforts)
}

func TestDecode_LastPointWins(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{
			JointNames: []string{"j"},
			Points: []types.JointTrajectoryPoint{
				{Positions: []float64{1}},
				{Positions: []float64{2}},
				{Positions: []float64{3}},
			},
		},
	}

	got := Decode(raw)
	require.Equal(t, []float64{3}, got.Positions)
}

func TestDecode_DoesNotAlias(t *testing.T) {
	raw := &types.RobotCmd{
		ArmCmd: types.JointTrajectory{
			JointNames: []string{"a"},
			Points:     []types.JointTrajectoryPoint{{Positions: []float64{1}}},
		},
	}

	got := Decode(raw)
	raw.ArmCmd.JointNames[0] = "changed"
	raw.ArmCmd.Points[0].Positions[0] = 99

	require.Equal(t, "a", got.JointNames[0])
	require.Equal(t, 1.0, got.Positions[0])
}

func TestDecode_LengthInvariant(t *testing.T) {
	lens := []int{0, 1, 2, 4}
	for _, nl := range lens {
		for _, pl := range lens {
			for _, vl := range lens {
				for _, el := range lens {
					raw := &types.RobotCmd{
						ArmCmd: types.JointTrajectory{
							JointNames: make([]string, nl),
							Points: []types.JointTrajectoryPoint{{
								Positions:  make([]float64, pl),
								Velocities: make([]float64, vl),
								Effort:     make([]float64, el),
							}},
						},
					}

					want := jointCount(nl, pl, vl, el)
					requireArmLen(t, Decode(raw), want)
				}
			}
		}
	}
}
