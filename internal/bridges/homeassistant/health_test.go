package homeassistant

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
)

type stubStatus struct {
	st coordinator.Status
}

func (s stubStatus) Status() coordinator.Status { return s.st }

func TestDetermineStatus(t *testing.T) {
	tests := []struct {
		name       string
		connected  bool
		status     coordinator.Status
		wantStatus HealthStatus
		wantReason string
	}{
		{
			name:       "healthy",
			connected:  true,
			status:     coordinator.Status{Success: true, ParamCount: 12},
			wantStatus: HealthHealthy,
		},
		{
			name:       "mqtt down",
			connected:  false,
			status:     coordinator.Status{Success: true},
			wantStatus: HealthDegraded,
			wantReason: "MQTT disconnected",
		},
		{
			name:       "refresh failing",
			connected:  true,
			status:     coordinator.Status{LastErrorKind: "auth_rejected", ConsecutiveFailures: 3},
			wantStatus: HealthDegraded,
			wantReason: "controller refresh failing: auth_rejected",
		},
		{
			name:       "never polled",
			connected:  true,
			wantStatus: HealthDegraded,
			wantReason: "controller not yet polled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockMQTTClient()
			m.connected = tt.connected
			h := newHealthReporter(healthConfig{publisher: m, status: stubStatus{tt.status}})

			status, reason := h.current()
			if status != tt.wantStatus || reason != tt.wantReason {
				t.Errorf("current() = (%s, %q), want (%s, %q)", status, reason, tt.wantStatus, tt.wantReason)
			}
		})
	}
}

func TestHealthReporter_PublishesMessage(t *testing.T) {
	m := NewMockMQTTClient()
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newHealthReporter(healthConfig{
		uid:       testUID,
		version:   "1.2.3",
		topic:     "econext/" + testUID + "/health",
		entities:  7,
		publisher: m,
		status:    stubStatus{coordinator.Status{Success: true, LastRefresh: last, LastSuccess: last, ParamCount: 40}},
	})

	if err := h.publishCurrent(); err != nil {
		t.Fatalf("publishCurrent() error = %v", err)
	}

	pubs := m.GetPublished()
	if len(pubs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pubs))
	}
	if !pubs[0].Retained || pubs[0].QoS != 1 {
		t.Errorf("health publish qos=%d retained=%v, want 1/true", pubs[0].QoS, pubs[0].Retained)
	}

	var msg HealthMessage
	if err := json.Unmarshal([]byte(pubs[0].Payload), &msg); err != nil {
		t.Fatalf("health payload not JSON: %v", err)
	}
	if msg.Bridge != BridgeID || msg.Controller != testUID || msg.Status != HealthHealthy || msg.Version != "1.2.3" {
		t.Errorf("message = %+v", msg)
	}
	if msg.EntitiesManaged != 7 || msg.Refresh == nil || msg.Refresh.ParamCount != 40 {
		t.Errorf("counts = %d / %+v", msg.EntitiesManaged, msg.Refresh)
	}
	if msg.Refresh.LastSuccess == nil || !msg.Refresh.LastSuccess.Equal(last) {
		t.Errorf("last_success = %v, want %v", msg.Refresh.LastSuccess, last)
	}
}

func TestHealthReporter_StartStop(t *testing.T) {
	m := NewMockMQTTClient()
	h := newHealthReporter(healthConfig{
		topic:     "econext/x/health",
		interval:  time.Hour,
		publisher: m,
		status:    stubStatus{coordinator.Status{Success: true}},
	})

	h.start(context.Background())
	h.stop()
	h.stop()

	pubs := m.GetPublished()
	if len(pubs) != 2 {
		t.Fatalf("published %d messages, want initial + stopping", len(pubs))
	}
	var msg HealthMessage
	if err := json.Unmarshal([]byte(pubs[1].Payload), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Status != HealthStopping {
		t.Errorf("final status = %s, want stopping", msg.Status)
	}
}
