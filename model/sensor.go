package model

import (
	"errors"
	"fmt"
)

var (
	ErrBadRange     = errors.New("sensor max range must be positive")
	ErrBadSpan      = errors.New("sensor angle span must be positive")
	ErrBadFrequency = errors.New("sensor frequency must be positive")
	ErrEmptyFrameID = errors.New("sensor frame id must not be empty")
)

// SensorDescription is the immutable configuration of one beacon detector.
// It is fixed at construction time and never changes afterwards.
type SensorDescription struct {
	// MaxRange is the maximum detection distance in metres.
	MaxRange float64 `json:"max_range" yaml:"max_range"`

	// AngleSpan is the total angular width of the field of view in
	// radians, centred on the sensor's heading.
	AngleSpan float64 `json:"angle_span" yaml:"angle_span"`

	// Frequency is the detection rate in ticks per second.
	Frequency float64 `json:"frequency" yaml:"frequency"`

	// FrameID names the sensor frame, without the robot prefix.
	FrameID string `json:"frame_id" yaml:"frame_id"`

	// Pose is the sensor's mount offset relative to the robot base.
	Pose Pose `json:"pose" yaml:"pose"`
}

// Validate reports the first invalid field, if any.
func (d SensorDescription) Validate() error {
	if d.MaxRange <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadRange, d.MaxRange)
	}
	if d.AngleSpan <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadSpan, d.AngleSpan)
	}
	if d.Frequency <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadFrequency, d.Frequency)
	}
	if d.FrameID == "" {
		return ErrEmptyFrameID
	}
	return nil
}
