package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/entity"
)

// entityView is one entity in API responses.
type entityView struct {
	Key        string         `json:"key"`
	Capability string         `json:"capability"`
	ParamID    string         `json:"param_id"`
	Device     string         `json:"device"`
	UniqueID   string         `json:"unique_id"`
	Icon       string         `json:"icon,omitempty"`
	Category   string         `json:"category,omitempty"`
	Available  bool           `json:"available"`
	State      *string        `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func newEntityView(e entity.Entity) entityView {
	v := entityView{
		Key:        e.Key(),
		Capability: string(e.Capability()),
		ParamID:    e.ParamID(),
		Device:     string(e.Device()),
		UniqueID:   e.UniqueID(),
		Icon:       e.Icon(),
		Category:   string(e.Category()),
		Available:  e.Available(),
		Attributes: e.Attributes(),
	}
	if state, ok := e.State(); ok {
		v.State = &state
	}
	return v
}

// entityViews returns the current view of every entity, optionally limited
// to one device group.
// All views are built from one snapshot.
func (s *Server) entityViews(device string) []entityView {
	snap, ok := s.pinned()
	out := make([]entityView, 0, s.entities.Len())
	for _, e := range s.entities.All() {
		if device != "" && string(e.Device()) != device {
			continue
		}
		out = append(out, newEntityView(entity.At(e, snap, ok)))
	}
	return out
}

// pinned returns the snapshot and refresh result entity views are built from.
func (s *Server) pinned() (econext.Snapshot, bool) {
	return s.coord.Snapshot(), s.coord.Status().Success
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	out := s.entityViews(r.URL.Query().Get("device"))
	writeJSON(w, http.StatusOK, map[string]any{
		"entities": out,
		"count":    len(out),
	})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entities.Get(chi.URLParam(r, "key"))
	if !ok {
		writeNotFound(w, "entity not found")
		return
	}
	snap, ok := s.pinned()
	writeJSON(w, http.StatusOK, newEntityView(entity.At(e, snap, ok)))
}

// commandRequest is the body of POST /entities/{key}/command. Payload uses
// the same strings as the MQTT command topics ("ON", "auto", "42.5", "PRESS").
type commandRequest struct {
	Payload string `json:"payload"`
}

func (s *Server) handleEntityCommand(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entities.Get(chi.URLParam(r, "key"))
	if !ok {
		writeNotFound(w, "entity not found")
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Payload == "" {
		writeBadRequest(w, "payload is required")
		return
	}

	if err := entity.Command(r.Context(), e, req.Payload); err != nil {
		s.logger.Warn("entity command failed", "key", e.Key(), "error", err)
		writeDeviceError(w, err)
		return
	}

	snap, ok := s.pinned()
	writeJSON(w, http.StatusOK, newEntityView(entity.At(e, snap, ok)))
}
