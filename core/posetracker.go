package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fieldsignals/beacon-simulator/internal/logging"
	"github.com/fieldsignals/beacon-simulator/model"
)

// DefaultLookupTimeout bounds how long a single pose refresh may wait on
// the pose source.
const DefaultLookupTimeout = 200 * time.Millisecond

// PoseSource resolves the pose of a named frame in a reference frame. A
// lookup waits at most until the context deadline and fails with
// ErrUnavailable when no pose can be resolved in time.
type PoseSource interface {
	LookupPose(ctx context.Context, referenceFrame, targetFrame string) (model.Pose, error)
}

// PoseTracker keeps the most recently resolved sensor pose in the world
// frame. It is refreshed on its own cadence, twice as often as detection
// runs, so a detection tick never blocks on pose resolution: it either uses
// the last known pose or skips when none has ever been resolved.
//
// The pose and its validity are published together behind an atomic
// pointer; readers see whole poses only. A failed refresh keeps the
// previous pose, and validity is never withdrawn once established.
type PoseTracker struct {
	source         PoseSource
	referenceFrame string
	targetFrame    string
	timeout        time.Duration
	log            logging.Logger

	pose atomic.Pointer[model.Pose]
}

// NewPoseTracker constructs a tracker that resolves targetFrame in
// referenceFrame through the given source. A zero timeout falls back to
// DefaultLookupTimeout.
func NewPoseTracker(source PoseSource, referenceFrame, targetFrame string, timeout time.Duration, log logging.Logger) *PoseTracker {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if log == nil {
		log = logging.Noop()
	}
	return &PoseTracker{
		source:         source,
		referenceFrame: referenceFrame,
		targetFrame:    targetFrame,
		timeout:        timeout,
		log:            log,
	}
}

// Refresh performs one bounded-wait pose lookup. On success the stored pose
// is replaced atomically; on failure the previous pose is retained and the
// error is returned for accounting. Transient failures are expected while
// the robot is still being set up, so they are only logged at debug level.
func (t *PoseTracker) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	pose, err := t.source.LookupPose(ctx, t.referenceFrame, t.targetFrame)
	if err != nil {
		t.log.Debug(ctx, "pose refresh failed",
			logging.String("reference", t.referenceFrame),
			logging.String("target", t.targetFrame),
			logging.String("error", err.Error()),
		)
		return err
	}

	t.pose.Store(&pose)
	return nil
}

// CurrentPose returns the most recently resolved pose and whether any pose
// has ever been resolved. It never blocks.
func (t *PoseTracker) CurrentPose() (model.Pose, bool) {
	p := t.pose.Load()
	if p == nil {
		return model.Pose{}, false
	}
	return *p, true
}
