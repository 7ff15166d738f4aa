package core

import (
	"math"
	"testing"
)

func TestCanonicalAngle_ReducesToSingleTurn(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{2 * math.Pi, 0},
		{math.Pi, math.Pi},
		{-0.1, 2*math.Pi - 0.1},
		{7, 7 - 2*math.Pi},
		{-7, -7 + 4*math.Pi},
		{5 * math.Pi, math.Pi},
	}
	for _, c := range cases {
		got := canonicalAngle(c.in)
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("canonicalAngle(%v) = %v, want %v", c.in, got, c.want)
		}
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("canonicalAngle(%v) = %v, outside [0, 2π)", c.in, got)
		}
	}
}

func TestWithinAngularWindow_SelfCentredWindow(t *testing.T) {
	const eps = 0.01
	for _, a := range []float64{0, 1, -1, math.Pi, -math.Pi, 3 * math.Pi, -2.9, 6.2} {
		if !withinAngularWindow(a, a-eps, a+eps) {
			t.Errorf("angle %v should be inside (%v, %v)", a, a-eps, a+eps)
		}
	}
}

func TestWithinAngularWindow_WindowNotContainingTarget(t *testing.T) {
	const eps = 0.01
	for _, a := range []float64{0, 1, -1, math.Pi, 3, 6} {
		if withinAngularWindow(a, a+eps, a+math.Pi) {
			t.Errorf("angle %v should be outside (%v, %v)", a, a+eps, a+math.Pi)
		}
	}
}

func TestWithinAngularWindow_SeamStraddlingWindow(t *testing.T) {
	// Window from π−0.1 across the ±π discontinuity to −π+0.1.
	min := math.Pi - 0.1
	max := -math.Pi + 0.1

	if !withinAngularWindow(math.Pi-0.01, min, max) {
		t.Errorf("target just below π should be inside the straddling window")
	}
	if !withinAngularWindow(-math.Pi+0.01, min, max) {
		t.Errorf("target just above -π should be inside the straddling window")
	}
	if withinAngularWindow(0, min, max) {
		t.Errorf("target opposite the straddling window should be outside")
	}
}

func TestWithinAngularWindow_BoundariesExcluded(t *testing.T) {
	windows := [][2]float64{
		{0.5, 1.5},                       // plain window
		{math.Pi - 0.1, math.Pi + 0.1},   // crosses π
		{-0.25, 0.25},                    // crosses zero
		{2*math.Pi - 0.3, 2*math.Pi + 0.3}, // crosses the full turn
	}
	for _, w := range windows {
		if withinAngularWindow(w[0], w[0], w[1]) {
			t.Errorf("min bound %v must be excluded from (%v, %v)", w[0], w[0], w[1])
		}
		if withinAngularWindow(w[1], w[0], w[1]) {
			t.Errorf("max bound %v must be excluded from (%v, %v)", w[1], w[0], w[1])
		}
	}
}

// Windows whose raw bounds share a sign but cross a whole turn used to be
// rejected outright when the straddle decision was made on the sign of the
// raw product. The decision is now made on the canonicalized bounds, so a
// window like (6.0, 6.5) admits headings on both sides of the 2π seam.
func TestWithinAngularWindow_SameSignWindowCrossingFullTurn(t *testing.T) {
	min, max := 6.0, 6.5

	if !withinAngularWindow(6.25, min, max) {
		t.Errorf("target inside (6.0, 6.5) below the seam should be admitted")
	}
	if !withinAngularWindow(6.4-2*math.Pi, min, max) {
		t.Errorf("target inside (6.0, 6.5) above the seam should be admitted")
	}
	if withinAngularWindow(3, min, max) {
		t.Errorf("target opposite the window should be rejected")
	}
}

// A window at least a full turn wide covers every bearing. Canonicalizing
// the bounds first would collapse it to its width mod 2π, leaving a sliver.
func TestWithinAngularWindow_FullTurnWindowAdmitsEverything(t *testing.T) {
	windows := [][2]float64{
		{0, 2 * math.Pi},
		{0, 6.2832},
		{-math.Pi, 3 * math.Pi},
		{1.5 - 1.1*math.Pi, 1.5 + 1.1*math.Pi},
	}
	for _, w := range windows {
		for _, a := range []float64{0, 1, -1, math.Pi, -math.Pi, 3, 2 * math.Pi, 6.2} {
			if !withinAngularWindow(a, w[0], w[1]) {
				t.Errorf("angle %v should be inside the full-turn window (%v, %v)", a, w[0], w[1])
			}
		}
	}
}
