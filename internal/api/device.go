package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
	"github.com/nerrad567/econext-bridge/internal/econext"
)

// deviceResponse is the body of GET /device.
type deviceResponse struct {
	coordinator.Identity
	Refresh coordinator.Status `json:"refresh"`
}

func (s *Server) handleGetDevice(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, deviceResponse{
		Identity: s.coord.DeviceIdentity(),
		Refresh:  s.coord.Status(),
	})
}

// handleRefresh runs a fetch synchronously and reports the outcome.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.Refresh(r.Context()); err != nil {
		writeDeviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.coord.Status())
}

// paramView is one parameter in API responses.
type paramView struct {
	ID string `json:"id"`
	econext.Parameter
}

// handleListParams returns the full snapshot ordered by numeric ID.
func (s *Server) handleListParams(w http.ResponseWriter, _ *http.Request) {
	snap := s.coord.Snapshot()
	out := make([]paramView, 0, snap.Len())
	for _, id := range snap.IDs() {
		p, _ := snap.Get(id)
		out = append(out, paramView{ID: id, Parameter: p})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"params": out,
		"count":  len(out),
	})
}

func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.coord.Snapshot().Get(id)
	if !ok {
		writeNotFound(w, "parameter not found")
		return
	}
	writeJSON(w, http.StatusOK, paramView{ID: id, Parameter: p})
}

// setParamRequest is the body of PUT /params/{id}.
type setParamRequest struct {
	Value *econext.Value `json:"value"`
}

// handleSetParam writes a raw value and asks for a refresh. The snapshot is
// not patched; the next refresh reports what the device accepted.
func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.coord.Snapshot().Get(id); !ok {
		writeNotFound(w, "parameter not found")
		return
	}

	var req setParamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil || !req.Value.Present() {
		writeBadRequest(w, "value is required")
		return
	}

	if err := s.writer.Set(r.Context(), id, *req.Value); err != nil {
		s.logger.Warn("parameter write failed", "param_id", id, "error", err)
		writeDeviceError(w, err)
		return
	}
	s.writer.RequestRefresh()

	s.logger.Info("parameter written", "param_id", id, "value", req.Value.String())
	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":                id,
		"value":             req.Value,
		"refresh_requested": true,
	})
}
