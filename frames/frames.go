// Package frames tracks the planar transforms of named frames relative to a
// single fixed reference frame, and resolves them with a bounded wait. It
// is the pose source the detector core refreshes from: lookups for frames
// that have not been published yet block until the frame first appears or
// the caller's deadline expires.
package frames

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldsignals/beacon-simulator/core"
	"github.com/fieldsignals/beacon-simulator/model"
)

// Tree holds the current transform of every published frame in the
// reference frame. Transforms are overwritten whole on every publish.
type Tree struct {
	referenceFrame string

	mu         sync.Mutex
	transforms map[string]model.Pose
	waiters    map[string][]chan model.Pose
}

// NewTree constructs an empty tree rooted at the given reference frame.
func NewTree(referenceFrame string) *Tree {
	return &Tree{
		referenceFrame: referenceFrame,
		transforms:     make(map[string]model.Pose),
		waiters:        make(map[string][]chan model.Pose),
	}
}

// ReferenceFrame returns the name of the fixed root frame.
func (t *Tree) ReferenceFrame() string { return t.referenceFrame }

// SetTransform records the pose of frame in the reference frame and wakes
// any lookups waiting for it.
func (t *Tree) SetTransform(frame string, pose model.Pose) {
	t.mu.Lock()
	t.transforms[frame] = pose
	waiting := t.waiters[frame]
	delete(t.waiters, frame)
	t.mu.Unlock()

	for _, ch := range waiting {
		ch <- pose // buffered, never blocks
	}
}

// PublishRobot records the transforms implied by one robot state: the base
// frame under the robot's name, plus one frame per mounted sensor at the
// robot pose composed with the sensor's mount offset.
func (t *Tree) PublishRobot(r model.RobotDefinition) {
	t.SetTransform(r.Name, r.Pose)
	for _, s := range r.Sensors {
		t.SetTransform(r.Name+"_"+s.FrameID, r.Pose.Compose(s.Pose))
	}
}

// LookupPose resolves targetFrame in referenceFrame. When the frame is
// already known the current transform is returned immediately; otherwise
// the call waits until the frame is first published or the context expires,
// in which case it fails with core.ErrUnavailable. It implements
// core.PoseSource.
func (t *Tree) LookupPose(ctx context.Context, referenceFrame, targetFrame string) (model.Pose, error) {
	if referenceFrame != t.referenceFrame {
		return model.Pose{}, fmt.Errorf("unknown reference frame %q (tree is rooted at %q): %w",
			referenceFrame, t.referenceFrame, core.ErrUnavailable)
	}

	t.mu.Lock()
	if pose, ok := t.transforms[targetFrame]; ok {
		t.mu.Unlock()
		return pose, nil
	}
	ch := make(chan model.Pose, 1)
	t.waiters[targetFrame] = append(t.waiters[targetFrame], ch)
	t.mu.Unlock()

	select {
	case pose := <-ch:
		return pose, nil
	case <-ctx.Done():
		return model.Pose{}, fmt.Errorf("frame %q: %w", targetFrame, core.ErrUnavailable)
	}
}
