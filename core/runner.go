package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldsignals/beacon-simulator/internal/logging"
	"github.com/fieldsignals/beacon-simulator/model"
)

// Sink accepts emitted measurements for delivery to downstream consumers.
// Delivery is fire-and-forget from the runner's perspective; a sink must
// not block the detection loop.
type Sink interface {
	Publish(m *model.Measurement)
}

// Metrics receives accounting events from the runner. The observability
// package provides the Prometheus-backed implementation.
type Metrics interface {
	ObserveTick(outcome string, beacons int, elapsed time.Duration)
	ObservePoseRefresh(ok bool)
	SetRegistrySize(n int)
}

// Tick outcome labels reported to Metrics.
const (
	TickOK          = "ok"
	TickSkippedMap  = "skipped_map"
	TickSkippedPose = "skipped_pose"
)

type noopMetrics struct{}

func (noopMetrics) ObserveTick(string, int, time.Duration) {}
func (noopMetrics) ObservePoseRefresh(bool)                {}
func (noopMetrics) SetRegistrySize(int)                    {}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithMetrics attaches a metrics recorder to the runner.
func WithMetrics(m Metrics) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// Runner drives one sensor: pose refresh at twice the detection frequency
// and detection at the configured frequency. Both activities run on a
// single goroutine, multiplexed over two tickers, so the only coordination
// they need is the atomic pose and registry snapshots they already share
// with the rest of the system. Skipped ticks are independent; the next one
// starts from scratch.
type Runner struct {
	detector *Detector
	tracker  *PoseTracker
	registry *Registry
	sink     Sink
	log      logging.Logger
	metrics  Metrics
	tracer   trace.Tracer

	detectPeriod  time.Duration
	refreshPeriod time.Duration
}

// NewRunner wires a runner for the given detector. The periods derive from
// the sensor's frequency: detection at 1/f, pose refresh at 1/(2f).
func NewRunner(det *Detector, tracker *PoseTracker, registry *Registry, sink Sink, log logging.Logger, opts ...RunnerOption) *Runner {
	if log == nil {
		log = logging.Noop()
	}
	f := det.Description().Frequency
	r := &Runner{
		detector:      det,
		tracker:       tracker,
		registry:      registry,
		sink:          sink,
		log:           log,
		metrics:       noopMetrics{},
		tracer:        otel.Tracer("beacon-simulator/core"),
		detectPeriod:  time.Duration(float64(time.Second) / f),
		refreshPeriod: time.Duration(float64(time.Second) / (2 * f)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks, driving the two periodic activities until the context is
// cancelled. It always returns the context's error.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info(ctx, "sensor runner starting",
		logging.String("frame", r.detector.FrameID()),
		logging.Duration("detect_period", r.detectPeriod),
		logging.Duration("refresh_period", r.refreshPeriod),
	)

	refresh := time.NewTicker(r.refreshPeriod)
	defer refresh.Stop()
	detect := time.NewTicker(r.detectPeriod)
	defer detect.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info(ctx, "sensor runner stopping", logging.String("frame", r.detector.FrameID()))
			return ctx.Err()

		case <-refresh.C:
			err := r.tracker.Refresh(ctx)
			r.metrics.ObservePoseRefresh(err == nil)

		case now := <-detect.C:
			r.tick(ctx, now)
		}
	}
}

func (r *Runner) tick(ctx context.Context, now time.Time) {
	ctx, span := r.tracer.Start(ctx, "detector.tick",
		trace.WithAttributes(attribute.String("sensor.frame", r.detector.FrameID())),
	)
	defer span.End()

	start := time.Now()
	r.metrics.SetRegistrySize(r.registry.Len())

	m, err := r.detector.Tick(now)
	elapsed := time.Since(start)

	switch {
	case err == ErrEnvironmentNotReady:
		span.SetAttributes(attribute.String("tick.outcome", TickSkippedMap))
		r.metrics.ObserveTick(TickSkippedMap, 0, elapsed)
		r.log.Debug(ctx, "detection skipped: environment not ready")
		return
	case err == ErrUnavailable:
		span.SetAttributes(attribute.String("tick.outcome", TickSkippedPose))
		r.metrics.ObserveTick(TickSkippedPose, 0, elapsed)
		r.log.Debug(ctx, "detection skipped: no pose resolved yet")
		return
	}

	span.SetAttributes(
		attribute.String("tick.outcome", TickOK),
		attribute.Int("tick.beacons", len(m.Beacons)),
	)
	r.metrics.ObserveTick(TickOK, len(m.Beacons), elapsed)

	if r.sink != nil {
		r.sink.Publish(m)
	}
}
