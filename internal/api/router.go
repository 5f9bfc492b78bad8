package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/econext-bridge/internal/bridges/homeassistant"
	"github.com/nerrad567/econext-bridge/internal/coordinator"
)

// buildRouter mounts every route under /api/v1.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.withRequestID, s.accessLog, s.recoverPanics, s.cors, limitBody)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Get("/device", s.handleGetDevice)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/params", func(r chi.Router) {
			r.Get("/", s.handleListParams)
			r.Get("/{id}", s.handleGetParam)
			r.Put("/{id}", s.handleSetParam)
		})

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Get("/{key}", s.handleGetEntity)
			r.Post("/{key}/command", s.handleEntityCommand)
		})

		r.Get("/controllers", s.handleListControllers)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status        string                       `json:"status"`
	Version       string                       `json:"version"`
	UptimeSeconds int64                        `json:"uptime_seconds"`
	Goroutines    int                          `json:"goroutines"`
	WSClients     int                          `json:"ws_clients"`
	WSDropped     uint64                       `json:"ws_dropped"`
	Refresh       coordinator.Status           `json:"refresh"`
	Bridge        *homeassistant.BridgeMetrics `json:"bridge,omitempty"`
}

// handleHealth reports "ok" while the last refresh succeeded, "degraded"
// otherwise. It always answers 200 so the bridge stays observable while
// the controller is down.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.coord.Status()

	resp := healthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		WSClients:     s.hub.ClientCount(),
		WSDropped:     s.hub.Dropped(),
		Refresh:       st,
	}
	if !st.Success {
		resp.Status = "degraded"
	}
	if s.bridge != nil {
		m := s.bridge.GetMetrics()
		resp.Bridge = &m
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleMetrics serves the Prometheus registry.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeNotFound(w, "metrics are not enabled")
		return
	}
	s.metrics.ServeHTTP(w, r)
}
