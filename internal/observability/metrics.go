package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DetectorCollector bundles Prometheus metrics for the detection pipeline
// and implements core.Metrics so runners can drive it directly.
type DetectorCollector struct {
	gatherer prometheus.Gatherer

	Ticks         *prometheus.CounterVec
	TickDurations prometheus.Histogram
	BeaconsInView prometheus.Histogram
	PoseRefreshes *prometheus.CounterVec
	RegistrySize  prometheus.Gauge
}

// NewDetectorCollector registers the detector metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewDetectorCollector(reg prometheus.Registerer) (*DetectorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "detector_ticks_total",
		Help: "Total detection ticks, labeled by outcome (ok, skipped_pose, skipped_map).",
	}, []string{"outcome"})
	ticks, err := registerCounterVec(reg, ticks, "detector_ticks_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "detector_tick_duration_seconds",
		Help:    "Time spent computing one detection tick.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
	}), "detector_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	beacons, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "detector_beacons_in_view",
		Help:    "Number of beacons admitted per successful detection tick.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}), "detector_beacons_in_view")
	if err != nil {
		return nil, err
	}

	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "detector_pose_refreshes_total",
		Help: "Pose refresh attempts, labeled by result (ok, unavailable).",
	}, []string{"result"})
	refreshes, err = registerCounterVec(reg, refreshes, "detector_pose_refreshes_total")
	if err != nil {
		return nil, err
	}

	size, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "detector_registry_beacons",
		Help: "Current number of beacons in the registry.",
	}), "detector_registry_beacons")
	if err != nil {
		return nil, err
	}

	return &DetectorCollector{
		gatherer:      gatherer,
		Ticks:         ticks,
		TickDurations: durations,
		BeaconsInView: beacons,
		PoseRefreshes: refreshes,
		RegistrySize:  size,
	}, nil
}

// ObserveTick records the outcome and duration of one detection tick. The
// beacon count is only observed for successful ticks.
func (c *DetectorCollector) ObserveTick(outcome string, beacons int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.WithLabelValues(outcome).Inc()
	}
	if c.TickDurations != nil {
		c.TickDurations.Observe(elapsed.Seconds())
	}
	if outcome == "ok" && c.BeaconsInView != nil {
		c.BeaconsInView.Observe(float64(beacons))
	}
}

// ObservePoseRefresh records one pose refresh attempt.
func (c *DetectorCollector) ObservePoseRefresh(ok bool) {
	if c == nil || c.PoseRefreshes == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "unavailable"
	}
	c.PoseRefreshes.WithLabelValues(result).Inc()
}

// SetRegistrySize updates the registry gauge.
func (c *DetectorCollector) SetRegistrySize(n int) {
	if c == nil || c.RegistrySize == nil {
		return
	}
	c.RegistrySize.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *DetectorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
