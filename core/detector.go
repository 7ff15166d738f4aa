package core

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsignals/beacon-simulator/internal/logging"
	"github.com/fieldsignals/beacon-simulator/model"
)

// Environment answers whether the world the sensor operates in has been
// initialized. Detection is meaningless before the map has a known extent,
// so ticks are skipped until it does.
type Environment interface {
	MapReady() bool
}

// Detector computes, once per tick, which beacons currently lie inside the
// sensor's detection range and field of view, and packages them into a
// measurement. It reads the pose tracker and the beacon registry through
// their atomic snapshots and holds no mutable state of its own.
type Detector struct {
	desc    model.SensorDescription
	frameID string

	env      Environment
	tracker  *PoseTracker
	registry *Registry
	log      logging.Logger
}

// NewDetector validates the sensor description and builds a detector for
// the named robot. The emitted frame id is the robot-qualified sensor
// frame, robotName_frameID.
func NewDetector(desc model.SensorDescription, robotName string, env Environment, tracker *PoseTracker, registry *Registry, log logging.Logger) (*Detector, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Detector{
		desc:     desc,
		frameID:  robotName + "_" + desc.FrameID,
		env:      env,
		tracker:  tracker,
		registry: registry,
		log:      log,
	}, nil
}

// FrameID returns the robot-qualified frame measurements are stamped with.
func (d *Detector) FrameID() string { return d.frameID }

// Description returns the sensor configuration.
func (d *Detector) Description() model.SensorDescription { return d.desc }

// Tick runs one detection cycle at the given time. The two guard failures,
// ErrEnvironmentNotReady and ErrUnavailable, mean the tick is skipped: no
// measurement, no fatal condition, retry on the next period. Once the
// guards pass a measurement is always produced, even when no beacon is in
// view.
func (d *Detector) Tick(now time.Time) (*model.Measurement, error) {
	if d.env == nil || !d.env.MapReady() {
		return nil, ErrEnvironmentNotReady
	}
	pose, ok := d.tracker.CurrentPose()
	if !ok {
		return nil, ErrUnavailable
	}
	return d.detect(pose, d.registry.Snapshot(), now), nil
}

// detect admits every beacon within MaxRange whose bearing from the sensor
// falls inside the field of view centred on the sensor heading. Snapshot
// order is preserved. O(N) over the registry; the beacon count is expected
// to stay small relative to the tick rate.
func (d *Detector) detect(pose model.Pose, beacons []model.Beacon, now time.Time) *model.Measurement {
	minAngle := pose.Theta - d.desc.AngleSpan/2
	maxAngle := pose.Theta + d.desc.AngleSpan/2

	detected := make([]model.Beacon, 0, len(beacons))
	for _, b := range beacons {
		dx := b.X - pose.X
		dy := b.Y - pose.Y
		if math.Sqrt(dx*dx+dy*dy) > d.desc.MaxRange {
			continue
		}
		if !withinAngularWindow(math.Atan2(dy, dx), minAngle, maxAngle) {
			continue
		}
		detected = append(detected, b)
	}

	return &model.Measurement{
		ID:      uuid.NewString(),
		FrameID: d.frameID,
		Stamp:   now,
		Beacons: detected,
	}
}
