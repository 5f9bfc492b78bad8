package mqtt

import (
	"fmt"
	"strings"
)

// Availability payloads understood by Home Assistant's default
// payload_available / payload_not_available.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Topics builds the per-controller topic tree:
//
//	<prefix>/<uid>/status                 bridge availability (LWT)
//	<prefix>/<uid>/<key>/state            entity state, retained
//	<prefix>/<uid>/<key>/availability     entity availability, retained
//	<prefix>/<uid>/<key>/set              entity command, not retained
//	<prefix>/<uid>/health                 bridge health JSON
//
// Using these helpers keeps topic naming consistent across the bridge
// and the discovery payloads that reference them.
type Topics struct {
	Prefix string
	UID    string
}

// NewTopics returns the topic builder for one controller.
func NewTopics(prefix, uid string) Topics {
	return Topics{Prefix: strings.TrimSuffix(prefix, "/"), UID: uid}
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", t.Prefix, t.UID)
}

// BridgeStatus returns the bridge availability topic.
//
// Example: econext/2L7SDPN6KQ38CIH2401K01U/status
func (t Topics) BridgeStatus() string {
	return t.base() + "/status"
}

// Health returns the topic for periodic bridge health reports.
func (t Topics) Health() string {
	return t.base() + "/health"
}

// State returns the state topic of one entity.
//
// Example: econext/2L7SDPN6KQ38CIH2401K01U/outdoor_temperature/state
func (t Topics) State(key string) string {
	return fmt.Sprintf("%s/%s/state", t.base(), key)
}

// Availability returns the availability topic of one entity.
func (t Topics) Availability(key string) string {
	return fmt.Sprintf("%s/%s/availability", t.base(), key)
}

// Command returns the topic Home Assistant publishes writes to.
func (t Topics) Command(key string) string {
	return fmt.Sprintf("%s/%s/set", t.base(), key)
}

// AllCommands returns the wildcard subscription matching every Command topic.
func (t Topics) AllCommands() string {
	return t.base() + "/+/set"
}

// CommandKey extracts the entity key from a Command topic.
// ok is false when topic does not belong to this controller's command tree.
func (t Topics) CommandKey(topic string) (key string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.base()+"/")
	if !found {
		return "", false
	}
	key, found = strings.CutSuffix(rest, "/set")
	if !found || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

// Discovery returns the retained discovery config topic for one entity.
//
// Example: homeassistant/sensor/2L7SDPN6KQ38CIH2401K01U/outdoor_temperature/config
func Discovery(discoveryPrefix, component, uid, key string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config",
		strings.TrimSuffix(discoveryPrefix, "/"), component, uid, key)
}
