package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/econext-bridge/internal/bridges/homeassistant"
	"github.com/nerrad567/econext-bridge/internal/controller"
	"github.com/nerrad567/econext-bridge/internal/coordinator"
	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/entity"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/config"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Coordinator is the polling view the API reads from.
// *coordinator.Coordinator satisfies it.
type Coordinator interface {
	Snapshot() econext.Snapshot
	Status() coordinator.Status
	DeviceIdentity() coordinator.Identity
	Refresh(ctx context.Context) error
}

// ParamWriter sends raw parameter writes. The instrumented entity source
// from the metrics package satisfies it.
type ParamWriter interface {
	Set(ctx context.Context, id string, value econext.Value) error
	RequestRefresh()
}

// BridgeStatus reports Home Assistant bridge state. *homeassistant.Bridge
// satisfies it.
type BridgeStatus interface {
	GetMetrics() homeassistant.BridgeMetrics
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Coordinator Coordinator
	Writer      ParamWriter
	Entities    *entity.Index

	// Optional.
	Controllers *controller.Registry
	Bridge      BridgeStatus
	Metrics     http.Handler

	Version string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	logger      *logging.Logger
	coord       Coordinator
	writer      ParamWriter
	entities    *entity.Index
	controllers *controller.Registry
	bridge      BridgeStatus
	metrics     http.Handler
	version     string
	startTime   time.Time

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc

	// lastStates holds the entity states last broadcast, for change events.
	lastStates   map[string]string
	lastStatesMu sync.Mutex
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Coordinator == nil {
		return nil, errors.New("coordinator is required")
	}
	if deps.Writer == nil {
		return nil, errors.New("parameter writer is required")
	}
	if deps.Entities == nil {
		deps.Entities = entity.NewIndex(nil)
	}

	s := &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		coord:       deps.Coordinator,
		writer:      deps.Writer,
		entities:    deps.Entities,
		controllers: deps.Controllers,
		bridge:      deps.Bridge,
		metrics:     deps.Metrics,
		version:     deps.Version,
		startTime:   time.Now(),
		hub:         NewHub(deps.WS, deps.Logger),
		lastStates:  make(map[string]string),
	}
	s.hub.states = func() []entityView { return s.entityViews("") }
	return s, nil
}

// Handler returns the routed HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      s.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       s.cfg.Timeouts.IdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
