package api

import (
	"time"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
	"github.com/nerrad567/econext-bridge/internal/econext"
)

// SnapshotEvent is broadcast on ChannelSnapshotUpdated after every refresh
// attempt and local patch.
type SnapshotEvent struct {
	Success    bool      `json:"success"`
	Patched    bool      `json:"patched"`
	ParamCount int       `json:"param_count"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	At         time.Time `json:"at"`
}

// EntityStateEvent is broadcast on ChannelEntityStateChanged when an
// entity's state or availability differs from the last broadcast.
type EntityStateEvent struct {
	Key       string  `json:"key"`
	State     *string `json:"state"`
	Available bool    `json:"available"`
}

// HandleUpdate is registered as a coordinator listener and relays updates
// to WebSocket clients.
func (s *Server) HandleUpdate(u coordinator.Update) {
	s.hub.Broadcast(ChannelSnapshotUpdated, SnapshotEvent{
		Success:    u.Success,
		Patched:    u.Patched,
		ParamCount: u.Snapshot.Len(),
		ErrorKind:  econext.ErrorKind(u.Err),
		At:         u.At,
	})

	s.lastStatesMu.Lock()
	defer s.lastStatesMu.Unlock()

	for _, e := range s.entities.All() {
		ev := EntityStateEvent{Key: e.Key(), Available: u.Success && e.Available()}
		fingerprint := "unavailable"
		if state, ok := e.State(); ok {
			ev.State = &state
			fingerprint = "=" + state
		}
		if !ev.Available {
			fingerprint = "!" + fingerprint
		}

		if prev, ok := s.lastStates[ev.Key]; ok && prev == fingerprint {
			continue
		}
		s.lastStates[ev.Key] = fingerprint
		s.hub.Broadcast(ChannelEntityStateChanged, ev)
	}
}
