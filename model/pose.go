package model

import "math"

// Pose is a planar pose: position plus heading in a shared reference frame.
// X and Y are metres, Theta is radians.
type Pose struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Theta float64 `json:"theta" yaml:"theta"`
}

// Compose returns the pose of child expressed in p's parent frame, where
// child is given relative to p. Used to place a sensor mounted on a robot
// into the world frame.
func (p Pose) Compose(child Pose) Pose {
	sin, cos := math.Sincos(p.Theta)
	return Pose{
		X:     p.X + child.X*cos - child.Y*sin,
		Y:     p.Y + child.X*sin + child.Y*cos,
		Theta: p.Theta + child.Theta,
	}
}

// DistanceTo returns the straight-line distance between the two positions,
// ignoring heading.
func (p Pose) DistanceTo(other Pose) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}
