// Package server exposes the simulator's HTTP surface: the beacon feed
// (full-snapshot replace), world introspection, health, and the websocket
// measurement stream.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fieldsignals/beacon-simulator/core"
	"github.com/fieldsignals/beacon-simulator/internal/logging"
	"github.com/fieldsignals/beacon-simulator/model"
	"github.com/fieldsignals/beacon-simulator/world"
)

// Options configures the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wires the REST API and the measurement stream over one listener.
type Server struct {
	httpServer  *http.Server
	router      *mux.Router
	world       *world.World
	registry    *core.Registry
	broadcaster *Broadcaster
	log         logging.Logger
}

// New constructs the server and registers all routes.
func New(opts Options, w *world.World, registry *core.Registry, broadcaster *Broadcaster, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			Handler:      router,
		},
		router:      router,
		world:       w,
		registry:    registry,
		broadcaster: broadcaster,
		log:         log,
	}
	s.registerRoutes()
	return s
}

// Router returns the underlying router, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start runs the listener in its own goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info(context.Background(), "http server starting", logging.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error(context.Background(), "http server exited", logging.String("error", err.Error()))
		}
	}()
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn(ctx, "http server shutdown failed", logging.String("error", err.Error()))
	}
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/world", s.handleGetWorld).Methods("GET")
	s.router.HandleFunc("/api/beacons", s.handleGetBeacons).Methods("GET")
	s.router.HandleFunc("/api/beacons", s.handleReplaceBeacons).Methods("PUT")
	s.router.HandleFunc("/ws/measurements", s.broadcaster.HandleWebSocket)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type worldSummary struct {
	MapReady    bool                    `json:"map_ready"`
	Map         world.MapInfo           `json:"map"`
	Robots      []model.RobotDefinition `json:"robots"`
	BeaconCount int                     `json:"beacon_count"`
	Subscribers int                     `json:"subscribers"`
}

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, worldSummary{
		MapReady:    s.world.MapReady(),
		Map:         s.world.MapInfo(),
		Robots:      s.world.Robots(),
		BeaconCount: s.registry.Len(),
		Subscribers: s.broadcaster.Subscribers(),
	})
}

func (s *Server) handleGetBeacons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshot())
}

// handleReplaceBeacons is the beacon feed: the client always sends the
// complete current beacon set, which replaces the registry wholesale.
func (s *Server) handleReplaceBeacons(w http.ResponseWriter, r *http.Request) {
	var beacons []model.Beacon
	if err := json.NewDecoder(r.Body).Decode(&beacons); err != nil {
		http.Error(w, "invalid beacon list: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.registry.Replace(beacons)
	s.log.Info(r.Context(), "beacon registry replaced", logging.Int("count", len(beacons)))
	writeJSON(w, http.StatusOK, map[string]int{"count": len(beacons)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
