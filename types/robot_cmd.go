package types

// The records below mirror the mm_msgs/RobotCmd message layout. They are the
// already-deserialized form handed to the decoder; field tags are shared by the
// CBOR and JSON codecs.

// Time is a point in time split into whole seconds and nanoseconds.
type Time struct {
	Sec     int32  `json:"sec"`
	Nanosec uint32 `json:"nanosec"`
}

// Seconds returns t as floating point seconds.
func (t Time) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nanosec)*1e-9
}

// Header carries the message stamp and coordinate frame.
type Header struct {
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id,omitempty"`
}

// Vector3 is a three-component vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Array returns v as a fixed-size array in x, y, z order.
func (v Vector3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// Twist is a velocity split into linear and angular parts.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// JointTrajectoryPoint is one waypoint of an arm trajectory.
//
// Any of the per-joint sequences may be empty or shorter than the joint count.
type JointTrajectoryPoint struct {
	Positions     []float64 `json:"positions,omitempty"`
	Velocities    []float64 `json:"velocities,omitempty"`
	Accelerations []float64 `json:"accelerations,omitempty"`
	Effort        []float64 `json:"effort,omitempty"`
	TimeFromStart Time      `json:"time_from_start"`
}

// JointTrajectory is an ordered sequence of waypoints for named joints.
type JointTrajectory struct {
	Header     Header                 `json:"header"`
	JointNames []string               `json:"joint_names,omitempty"`
	Points     []JointTrajectoryPoint `json:"points,omitempty"`
}

// RobotCmd is the raw robot command record carried on the wire.
type RobotCmd struct {
	Header     Header          `json:"header"`
	Yaw        float32         `json:"yaw"`
	ChassisCmd Twist           `json:"chassis_cmd"`
	GripperCmd float32         `json:"gripper_cmd"`
	ArmCmd     JointTrajectory `json:"arm_cmd"`
}
