package model

// MotionSource indicates how a robot's pose evolves over simulation time.
type MotionSource int

const (
	MotionSourceStatic   MotionSource = iota
	MotionSourceUnicycle              // constant linear/angular velocity integration
)

// MotionParams holds velocity parameters for robots with kinematic motion.
type MotionParams struct {
	// Linear velocity along the robot's heading, metres per second.
	Linear float64 `json:"linear" yaml:"linear"`
	// Angular velocity, radians per second, positive counter-clockwise.
	Angular float64 `json:"angular" yaml:"angular"`
}

// RobotDefinition represents one simulated robot: its identity, current pose
// in the world frame, how that pose evolves, and the sensors mounted on it.
type RobotDefinition struct {
	Name string `json:"name" yaml:"name"`

	Pose         Pose         `json:"pose" yaml:"pose"`
	MotionSource MotionSource `json:"-" yaml:"-"`
	Motion       MotionParams `json:"motion" yaml:"motion"`

	Sensors []SensorDescription `json:"sensors" yaml:"sensors"`
}
