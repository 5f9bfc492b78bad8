package homeassistant

import (
	"time"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
)

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates polling and MQTT are both working.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is running with issues, such as
	// an unreachable controller or a lost broker connection.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the JSON body published to the health topic.
// QoS: 1, Retained: Yes
type HealthMessage struct {
	// Bridge is the bridge identifier.
	Bridge string `json:"bridge"`

	// Controller is the UID of the polled controller.
	Controller string `json:"controller"`

	// Timestamp is when the health status was generated (UTC).
	Timestamp time.Time `json:"timestamp"`

	Status  HealthStatus `json:"status"`
	Version string       `json:"version"`

	// UptimeSeconds is how long the bridge has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Refresh summarises the polling history.
	Refresh *RefreshStatus `json:"refresh,omitempty"`

	// EntitiesManaged is the number of entities exposed to Home Assistant.
	EntitiesManaged int `json:"entities_managed"`

	// Reason explains a degraded status.
	Reason string `json:"reason,omitempty"`
}

// RefreshStatus is the polling part of a HealthMessage.
type RefreshStatus struct {
	Success             bool       `json:"success"`
	LastRefresh         *time.Time `json:"last_refresh,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastErrorKind       string     `json:"last_error_kind,omitempty"`
	ParamCount          int        `json:"param_count"`
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(bridgeID, uid, version string, status HealthStatus, refresh coordinator.Status, entities int, startTime time.Time) HealthMessage {
	msg := HealthMessage{
		Bridge:          bridgeID,
		Controller:      uid,
		Timestamp:       time.Now().UTC(),
		Status:          status,
		Version:         version,
		UptimeSeconds:   int64(time.Since(startTime).Seconds()),
		EntitiesManaged: entities,
	}

	msg.Refresh = &RefreshStatus{
		Success:             refresh.Success,
		ConsecutiveFailures: refresh.ConsecutiveFailures,
		LastErrorKind:       refresh.LastErrorKind,
		ParamCount:          refresh.ParamCount,
	}
	if !refresh.LastRefresh.IsZero() {
		t := refresh.LastRefresh.UTC()
		msg.Refresh.LastRefresh = &t
	}
	if !refresh.LastSuccess.IsZero() {
		t := refresh.LastSuccess.UTC()
		msg.Refresh.LastSuccess = &t
	}

	return msg
}
