package core

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fieldsignals/beacon-simulator/model"
)

type fakeEnv struct{ ready bool }

func (f fakeEnv) MapReady() bool { return f.ready }

func testDescription() model.SensorDescription {
	return model.SensorDescription{
		MaxRange:  5,
		AngleSpan: math.Pi / 2,
		Frequency: 10,
		FrameID:   "rfid_reader",
	}
}

// newTestDetector wires a detector whose tracker already resolved the given
// pose and whose registry holds the given beacons.
func newTestDetector(t *testing.T, pose model.Pose, beacons []model.Beacon) *Detector {
	t.Helper()

	src := &scriptedSource{results: []scriptedResult{{pose: pose}}}
	tracker := NewPoseTracker(src, "world_static", "robot0_rfid_reader", 0, nil)
	if err := tracker.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	registry := NewRegistry()
	registry.Replace(beacons)

	det, err := NewDetector(testDescription(), "robot0", fakeEnv{ready: true}, tracker, registry, nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return det
}

func TestNewDetector_RejectsInvalidDescription(t *testing.T) {
	desc := testDescription()
	desc.MaxRange = 0
	if _, err := NewDetector(desc, "robot0", fakeEnv{ready: true}, nil, nil, nil); !errors.Is(err, model.ErrBadRange) {
		t.Fatalf("expected ErrBadRange, got %v", err)
	}
}

func TestDetector_EndToEndScenario(t *testing.T) {
	// Observer at the origin, heading 0, range 5, span π/2.
	det := newTestDetector(t, model.Pose{}, []model.Beacon{
		{ID: "ahead", X: 3, Y: 0},     // in range, in field of view
		{ID: "far", X: 10, Y: 0},      // out of range
		{ID: "side", X: 0, Y: 3},      // in range, outside field of view
	})

	m, err := det.Tick(time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(m.Beacons) != 1 || m.Beacons[0].ID != "ahead" {
		t.Fatalf("expected exactly beacon %q, got %#v", "ahead", m.Beacons)
	}
	if m.FrameID != "robot0_rfid_reader" {
		t.Errorf("unexpected frame id %q", m.FrameID)
	}
	if m.ID == "" {
		t.Errorf("measurement should carry an id")
	}
}

func TestDetector_RangeBoundary(t *testing.T) {
	const delta = 1e-3
	det := newTestDetector(t, model.Pose{}, []model.Beacon{
		{ID: "inside", X: 5 - delta, Y: 0},
		{ID: "outside", X: 5 + delta, Y: 0},
	})

	m, err := det.Tick(time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(m.Beacons) != 1 || m.Beacons[0].ID != "inside" {
		t.Fatalf("range filter admitted the wrong set: %#v", m.Beacons)
	}
}

func TestDetector_HeadingRotatesFieldOfView(t *testing.T) {
	// Heading π/2: the beacon on the +Y axis is now straight ahead and the
	// one on +X drops out of view.
	det := newTestDetector(t, model.Pose{Theta: math.Pi / 2}, []model.Beacon{
		{ID: "east", X: 3, Y: 0},
		{ID: "north", X: 0, Y: 3},
	})

	m, err := det.Tick(time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(m.Beacons) != 1 || m.Beacons[0].ID != "north" {
		t.Fatalf("expected only %q in view, got %#v", "north", m.Beacons)
	}
}

// A span of a full turn (or more) means no bearing filter at all. The
// window must not collapse to span mod 2π, which would leave a sliver and
// an almost-blind sensor.
func TestDetector_FullCircleSpanSeesAllAround(t *testing.T) {
	desc := model.SensorDescription{
		MaxRange:  3,
		AngleSpan: 6.2832,
		Frequency: 5,
		FrameID:   "rfid_reader",
	}

	src := &scriptedSource{results: []scriptedResult{{pose: model.Pose{X: 10, Y: 8, Theta: 3.1416}}}}
	tracker := NewPoseTracker(src, "world_static", "robot1_rfid_reader", 0, nil)
	if err := tracker.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	registry := NewRegistry()
	registry.Replace([]model.Beacon{
		{ID: "behind", X: 12, Y: 8},  // opposite the heading
		{ID: "ahead", X: 8, Y: 8},    // along the heading
		{ID: "beside", X: 10, Y: 10}, // perpendicular
		{ID: "far", X: 20, Y: 8},     // out of range
	})

	det, err := NewDetector(desc, "robot1", fakeEnv{ready: true}, tracker, registry, nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}

	m, err := det.Tick(time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(m.Beacons) != 3 {
		t.Fatalf("full-circle sensor should admit every in-range beacon, got %#v", m.Beacons)
	}
	for i, want := range []string{"behind", "ahead", "beside"} {
		if m.Beacons[i].ID != want {
			t.Errorf("beacon %d = %q, want %q", i, m.Beacons[i].ID, want)
		}
	}
}

func TestDetector_EmptyMeasurementIsNotAnError(t *testing.T) {
	det := newTestDetector(t, model.Pose{}, nil)

	m, err := det.Tick(time.Now())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if m == nil || len(m.Beacons) != 0 {
		t.Fatalf("expected an empty measurement, got %#v", m)
	}
}

func TestDetector_SkipsWhenEnvironmentNotReady(t *testing.T) {
	det := newTestDetector(t, model.Pose{}, nil)
	det.env = fakeEnv{ready: false}

	if _, err := det.Tick(time.Now()); !errors.Is(err, ErrEnvironmentNotReady) {
		t.Fatalf("expected ErrEnvironmentNotReady, got %v", err)
	}
}

func TestDetector_SkipsBeforeFirstPose(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{err: ErrUnavailable}}}
	tracker := NewPoseTracker(src, "world_static", "robot0_rfid_reader", 0, nil)

	det, err := NewDetector(testDescription(), "robot0", fakeEnv{ready: true}, tracker, NewRegistry(), nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}

	if _, err := det.Tick(time.Now()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDetector_TickIsIdempotent(t *testing.T) {
	det := newTestDetector(t, model.Pose{}, []model.Beacon{
		{ID: "ahead", X: 3, Y: 0},
		{ID: "close", X: 1, Y: 0.5},
	})

	first, err := det.Tick(time.Now())
	if err != nil {
		t.Fatalf("first Tick: %v", err)
	}
	second, err := det.Tick(time.Now())
	if err != nil {
		t.Fatalf("second Tick: %v", err)
	}

	if len(first.Beacons) != len(second.Beacons) {
		t.Fatalf("membership changed between ticks: %d vs %d", len(first.Beacons), len(second.Beacons))
	}
	for i := range first.Beacons {
		if first.Beacons[i].ID != second.Beacons[i].ID {
			t.Errorf("beacon order changed at %d: %q vs %q", i, first.Beacons[i].ID, second.Beacons[i].ID)
		}
	}
	if first.ID == second.ID {
		t.Errorf("each measurement should get a fresh id")
	}
}
