package model

import "time"

// Measurement is the output of one detection tick: the beacons that were
// inside the sensor's range and field of view at the stamped time, in
// registry snapshot order. A Measurement is created fresh on every tick and
// never mutated after it is handed to the sink.
type Measurement struct {
	// ID uniquely identifies this measurement.
	ID string `json:"id"`

	// FrameID is the fully qualified sensor frame the measurement was
	// taken in, robot name included.
	FrameID string `json:"frame_id"`

	// Stamp is the time the detection tick ran.
	Stamp time.Time `json:"stamp"`

	// Beacons holds the detected beacons. It may be empty; an empty
	// measurement is still a valid result, not an error.
	Beacons []Beacon `json:"beacons"`
}
