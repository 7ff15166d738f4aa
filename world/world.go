package world

import (
	"fmt"
	"sync"

	"github.com/fieldsignals/beacon-simulator/model"
)

// EventType indicates what kind of change happened in the world.
type EventType int

const (
	EventRobotPoseUpdated EventType = iota
)

// Event is emitted to subscribers when a robot's state changes. The robot
// is a copy taken under the store's lock.
type Event struct {
	Type  EventType
	Robot model.RobotDefinition
}

// MapInfo describes the occupancy map extent. The detector only consults
// it as an "is the environment initialized" guard; cells themselves are not
// modelled here.
type MapInfo struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Resolution float64 `yaml:"resolution"` // metres per cell
}

// World is an in-memory, thread-safe store for the simulated environment:
// the occupancy map metadata and the robots moving through it.
type World struct {
	mu sync.RWMutex

	mapInfo MapInfo
	robots  map[string]*model.RobotDefinition

	subs []func(Event)
}

// New constructs an empty world with no map extent.
func New() *World {
	return &World{
		robots: make(map[string]*model.RobotDefinition),
	}
}

// SetMapInfo records the occupancy map extent and marks the environment
// initialized once both dimensions are positive.
func (w *World) SetMapInfo(info MapInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mapInfo = info
}

// MapInfo returns the current map metadata.
func (w *World) MapInfo() MapInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mapInfo
}

// MapReady reports whether the environment has a known spatial extent.
// It implements core.Environment.
func (w *World) MapReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mapInfo.Width > 0 && w.mapInfo.Height > 0
}

// AddRobot registers a new robot. It returns an error if the name is empty
// or already taken.
func (w *World) AddRobot(r *model.RobotDefinition) error {
	if r == nil || r.Name == "" {
		return fmt.Errorf("nil robot or empty name")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.robots[r.Name]; exists {
		return fmt.Errorf("robot %q already exists", r.Name)
	}
	w.robots[r.Name] = r
	return nil
}

// GetRobot returns a copy of the named robot, and whether it exists.
func (w *World) GetRobot(name string) (model.RobotDefinition, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r, ok := w.robots[name]
	if !ok {
		return model.RobotDefinition{}, false
	}
	return *r, true
}

// Robots returns copies of all registered robots.
func (w *World) Robots() []model.RobotDefinition {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.RobotDefinition, 0, len(w.robots))
	for _, r := range w.robots {
		out = append(out, *r)
	}
	return out
}

// UpdateRobotPose overwrites the named robot's pose and notifies
// subscribers.
func (w *World) UpdateRobotPose(name string, pose model.Pose) error {
	w.mu.Lock()
	r, ok := w.robots[name]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("robot %q not found", name)
	}
	r.Pose = pose
	copied := *r
	subs := w.subs
	w.mu.Unlock()

	for _, fn := range subs {
		fn(Event{Type: EventRobotPoseUpdated, Robot: copied})
	}
	return nil
}

// AddListener registers a callback for world events. Listeners must be
// registered before the simulation starts; registration is not synchronized
// with emission.
func (w *World) AddListener(fn func(Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}
