package model

// Beacon is a stationary tagged point in the world frame. Beacons are
// immutable once placed; the full set is owned by the registry and replaced
// wholesale whenever the feed delivers a new snapshot.
type Beacon struct {
	ID string `json:"id" yaml:"id"`

	// Position in the shared world frame, metres.
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`

	// Message is an optional payload carried by the beacon and echoed
	// back in measurements.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}
