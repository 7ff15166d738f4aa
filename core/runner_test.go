package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fieldsignals/beacon-simulator/model"
)

type collectingSink struct {
	mu           sync.Mutex
	measurements []*model.Measurement
}

func (s *collectingSink) Publish(m *model.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements = append(s.measurements, m)
}

func (s *collectingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.measurements)
}

type countingMetrics struct {
	mu        sync.Mutex
	ticks     map[string]int
	refreshes int
}

func (m *countingMetrics) ObserveTick(outcome string, beacons int, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticks == nil {
		m.ticks = make(map[string]int)
	}
	m.ticks[outcome]++
}

func (m *countingMetrics) ObservePoseRefresh(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
}

func (m *countingMetrics) SetRegistrySize(n int) {}

func (m *countingMetrics) snapshot() (map[string]int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.ticks))
	for k, v := range m.ticks {
		out[k] = v
	}
	return out, m.refreshes
}

func newRunnerFixture(t *testing.T, source PoseSource, ready bool) (*Runner, *collectingSink, *countingMetrics) {
	t.Helper()

	desc := testDescription()
	desc.Frequency = 50 // keep the test fast

	tracker := NewPoseTracker(source, "world_static", "robot0_rfid_reader", 0, nil)
	registry := NewRegistry()
	registry.Replace([]model.Beacon{{ID: "ahead", X: 1, Y: 0}})

	det, err := NewDetector(desc, "robot0", fakeEnv{ready: ready}, tracker, registry, nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}

	sink := &collectingSink{}
	metrics := &countingMetrics{}
	return NewRunner(det, tracker, registry, sink, nil, WithMetrics(metrics)), sink, metrics
}

func TestRunner_EmitsMeasurementsAndRefreshesFaster(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{pose: model.Pose{}}}}
	runner, sink, metrics := newRunnerFixture(t, src, true)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run should return the context error, got %v", err)
	}

	if sink.count() == 0 {
		t.Fatalf("expected emitted measurements")
	}
	ticks, refreshes := metrics.snapshot()
	if ticks[TickOK] == 0 {
		t.Fatalf("expected ok ticks, got %v", ticks)
	}
	// Pose refresh runs at twice the detection frequency. Allow generous
	// slack for scheduler jitter.
	if refreshes <= ticks[TickOK] {
		t.Errorf("expected more refreshes (%d) than detection ticks (%d)", refreshes, ticks[TickOK])
	}
}

func TestRunner_SkipsWhileEnvironmentNotReady(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{pose: model.Pose{}}}}
	runner, sink, metrics := newRunnerFixture(t, src, false)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = runner.Run(ctx)

	if sink.count() != 0 {
		t.Fatalf("no measurements should be emitted before the map is ready")
	}
	ticks, _ := metrics.snapshot()
	if ticks[TickSkippedMap] == 0 {
		t.Fatalf("expected skipped_map ticks, got %v", ticks)
	}
}

func TestRunner_SkipsUntilPoseResolves(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{err: ErrUnavailable}}}
	runner, sink, metrics := newRunnerFixture(t, src, true)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = runner.Run(ctx)

	if sink.count() != 0 {
		t.Fatalf("no measurements should be emitted before the first pose")
	}
	ticks, refreshes := metrics.snapshot()
	if ticks[TickSkippedPose] == 0 {
		t.Fatalf("expected skipped_pose ticks, got %v", ticks)
	}
	if refreshes == 0 {
		t.Fatalf("refresh attempts should continue while the pose is unavailable")
	}
}
