package core

import "math"

const twoPi = 2 * math.Pi

// canonicalAngle reduces an arbitrary angle in radians to the half-open
// interval [0, 2π) by subtracting the appropriate whole number of turns.
func canonicalAngle(a float64) float64 {
	turns := math.Floor((a + twoPi) / twoPi)
	return a + (1-turns)*twoPi
}

// withinAngularWindow reports whether target lies strictly inside the
// angular interval (min, max). The caller guarantees min < max before
// canonicalization. All three angles may be arbitrary reals; each is
// canonicalized independently.
//
// A window at least a full turn wide covers the whole circle, so every
// bearing is inside. Canonicalizing the bounds first would lose the whole
// turns and collapse such a window to its width mod 2π.
//
// After canonicalization the window either lies entirely inside [0, 2π) or
// straddles the 0/2π seam (canonical min above canonical max). In the
// straddling case the upper bound is unwrapped by a full turn and the
// target is tested both directly and shifted by 2π, so membership is
// decided on the circle rather than on the cut line. Both bounds are
// excluded.
func withinAngularWindow(target, min, max float64) bool {
	if max-min >= twoPi {
		return true
	}

	t := canonicalAngle(target)
	lo := canonicalAngle(min)
	hi := canonicalAngle(max)

	if lo < hi {
		return lo < t && t < hi
	}

	// Window straddles the seam.
	hi += twoPi
	if lo < t && t < hi {
		return true
	}
	t += twoPi
	return lo < t && t < hi
}
