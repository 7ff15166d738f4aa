package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fieldsignals/beacon-simulator/core"
	"github.com/fieldsignals/beacon-simulator/frames"
	"github.com/fieldsignals/beacon-simulator/internal/config"
	"github.com/fieldsignals/beacon-simulator/internal/logging"
	"github.com/fieldsignals/beacon-simulator/internal/observability"
	"github.com/fieldsignals/beacon-simulator/internal/server"
	"github.com/fieldsignals/beacon-simulator/timectrl"
	"github.com/fieldsignals/beacon-simulator/world"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the simulator configuration file")
	scenarioPath := flag.String("scenario", "", "Path to the scenario file (overrides the configured path)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *scenarioPath != "" {
		cfg.Simulation.ScenarioPath = *scenarioPath
	}

	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	ctx := context.Background()

	collector, err := observability.NewDetectorCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}

	// World and beacon registry, populated from the scenario file.
	w := world.New()
	registry := core.NewRegistry()

	scenario, err := loadScenario(w, registry, cfg.Simulation.ScenarioPath)
	if err != nil {
		log.Error(ctx, "failed to load scenario",
			logging.String("path", cfg.Simulation.ScenarioPath),
			logging.String("error", err.Error()))
		os.Exit(1)
	}
	collector.SetRegistrySize(registry.Len())
	log.Info(ctx, "scenario loaded",
		logging.String("path", cfg.Simulation.ScenarioPath),
		logging.Int("robots", len(scenario.RobotNames)),
		logging.Int("beacons", len(scenario.BeaconIDs)))

	// Frame tree rooted at the world frame. Robot pose updates republish
	// the robot's base and sensor frames.
	tree := frames.NewTree(cfg.Simulation.WorldFrame)
	w.AddListener(func(ev world.Event) {
		if ev.Type == world.EventRobotPoseUpdated {
			tree.PublishRobot(ev.Robot)
		}
	})
	for _, r := range w.Robots() {
		tree.PublishRobot(r)
	}

	// Time controller advances robot motion between detector ticks.
	mode := timectrl.RealTime
	if cfg.Simulation.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Simulation.Tick, mode)
	registerMotion(tc, w, log)

	broadcaster := server.NewBroadcaster(log)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One detection pipeline per declared sensor.
	var wg sync.WaitGroup
	for _, r := range w.Robots() {
		for _, desc := range r.Sensors {
			tracker := core.NewPoseTracker(tree, tree.ReferenceFrame(), r.Name+"_"+desc.FrameID,
				core.DefaultLookupTimeout, log)
			det, err := core.NewDetector(desc, r.Name, w, tracker, registry, log)
			if err != nil {
				log.Error(ctx, "invalid sensor",
					logging.String("robot", r.Name),
					logging.String("frame", desc.FrameID),
					logging.String("error", err.Error()))
				os.Exit(1)
			}
			runner := core.NewRunner(det, tracker, registry, broadcaster, log,
				core.WithMetrics(collector))

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := runner.Run(runCtx); err != nil && err != context.Canceled {
					log.Error(ctx, "detector runner exited",
						logging.String("frame", det.FrameID()),
						logging.String("error", err.Error()))
				}
			}()
		}
	}

	apiSrv := server.New(server.Options{
		Addr:         cfg.Server.HTTPAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, w, registry, broadcaster, log)
	apiSrv.Start()

	tcDone := tc.Start(runCtx, 0)

	log.Info(ctx, "beacon simulator running",
		logging.String("http_addr", cfg.Server.HTTPAddr),
		logging.String("metrics_addr", cfg.Server.MetricsAddr),
		logging.Duration("tick", cfg.Simulation.Tick))

	<-runCtx.Done()
	log.Info(ctx, "shutting down")

	<-tcDone
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	apiSrv.Stop(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

// registerMotion wires each robot's motion model into the time controller.
// Pose updates go through the world so frame republication and listener
// notification stay on the one path.
func registerMotion(tc *timectrl.TimeController, w *world.World, log logging.Logger) {
	models := make(map[string]core.MotionModel)
	for _, r := range w.Robots() {
		robot := r
		models[robot.Name] = core.NewMotionModel(&robot)
	}

	tc.AddListener(func(now time.Time, elapsed time.Duration) {
		for name, mm := range models {
			robot, ok := w.GetRobot(name)
			if !ok {
				continue
			}
			mm.UpdatePose(elapsed, &robot)
			if err := w.UpdateRobotPose(name, robot.Pose); err != nil {
				log.Warn(context.Background(), "failed to update robot pose",
					logging.String("robot", name),
					logging.String("error", err.Error()))
			}
		}
	})
}

func loadScenario(w *world.World, registry *core.Registry, path string) (*world.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return world.LoadScenario(w, registry, f)
}

func serveMetrics(addr string, collector *observability.DetectorCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
