package core

import (
	"math"
	"time"

	"github.com/fieldsignals/beacon-simulator/model"
)

// MotionModel advances a robot's pose from one simulation instant to the
// next. Implementations integrate in place; the world store owns the
// definition and republishes the pose after each update.
type MotionModel interface {
	UpdatePose(elapsed time.Duration, r *model.RobotDefinition)
}

// StaticMotionModel leaves the robot where it is.
type StaticMotionModel struct{}

// UpdatePose for a static robot does nothing.
func (m *StaticMotionModel) UpdatePose(elapsed time.Duration, r *model.RobotDefinition) {
	// no-op
}

// UnicycleMotionModel integrates a constant linear and angular velocity
// using the midpoint heading, which keeps circular arcs reasonably accurate
// at coarse tick rates.
type UnicycleMotionModel struct {
	Linear  float64 // metres per second along the heading
	Angular float64 // radians per second, positive counter-clockwise
}

// UpdatePose advances the pose by elapsed at the model's velocities.
func (m *UnicycleMotionModel) UpdatePose(elapsed time.Duration, r *model.RobotDefinition) {
	dt := elapsed.Seconds()
	if dt <= 0 {
		return
	}
	sin, cos := math.Sincos(r.Pose.Theta + m.Angular*dt/2)
	r.Pose = model.Pose{
		X:     r.Pose.X + m.Linear*dt*cos,
		Y:     r.Pose.Y + m.Linear*dt*sin,
		Theta: r.Pose.Theta + m.Angular*dt,
	}
}

// NewMotionModel chooses a motion model for the robot from its definition.
func NewMotionModel(r *model.RobotDefinition) MotionModel {
	if r.MotionSource == model.MotionSourceUnicycle {
		return &UnicycleMotionModel{Linear: r.Motion.Linear, Angular: r.Motion.Angular}
	}
	return &StaticMotionModel{}
}
