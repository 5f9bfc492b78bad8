package homeassistant

import (
	"strings"

	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/entity"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/mqtt"
)

// Manufacturer is reported in every device block.
const Manufacturer = "Plum"

// ParamSoftwareVersion holds the controller firmware string.
const ParamSoftwareVersion = "0"

// Device is the Home Assistant device block of a discovery payload.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

// availabilityTopic is one entry of the discovery "availability" list.
type availabilityTopic struct {
	Topic string `json:"topic"`
}

// DeviceID returns the Home Assistant device identifier for a group.
// Sub-devices are "<uid>_dhw" and "<uid>_heatpump".
func DeviceID(uid string, g entity.DeviceGroup) string {
	if g == entity.DeviceController || g == "" {
		return uid
	}
	return uid + "_" + string(g)
}

// DeviceBlock builds the device block for group g of the controller
// described by snap.
func DeviceBlock(snap econext.Snapshot, g entity.DeviceGroup) Device {
	uid, name := snap.Identity()

	d := Device{
		Identifiers:  []string{DeviceID(uid, g)},
		Manufacturer: Manufacturer,
		Model:        name,
	}

	switch g {
	case entity.DeviceDHW:
		d.Name = name + " Hot Water"
		d.ViaDevice = uid
	case entity.DeviceHeatPump:
		d.Name = name + " Heat Pump"
		d.ViaDevice = uid
	default:
		d.Name = name
		if v, ok := snap.Value(ParamSoftwareVersion); ok {
			d.SWVersion = v.String()
		}
	}
	return d
}

// DisplayName turns an entity key into a readable name:
// "outdoor_temperature" becomes "Outdoor temperature", "dhw_boost" "DHW boost".
func DisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		switch w {
		case "dhw", "uid", "lan", "ip", "ssid":
			words[i] = strings.ToUpper(w)
		case "wifi":
			words[i] = "WiFi"
		default:
			if i == 0 && w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
	}
	return strings.Join(words, " ")
}

// DiscoveryPayload builds the discovery config for e. The payload is a
// plain map so capability-specific fields can be added without a struct
// per component.
func DiscoveryPayload(e entity.Entity, snap econext.Snapshot, topics mqtt.Topics) map[string]any {
	key := e.Key()

	cfg := map[string]any{
		"name":      DisplayName(key),
		"unique_id": e.UniqueID(),
		"object_id": "econext_" + key,
		"availability": []availabilityTopic{
			{Topic: topics.BridgeStatus()},
			{Topic: topics.Availability(key)},
		},
		"availability_mode": "all",
		"device":            DeviceBlock(snap, e.Device()),
	}
	if e.Icon() != "" {
		cfg["icon"] = e.Icon()
	}
	if e.Category() != entity.CategoryNone {
		cfg["entity_category"] = string(e.Category())
	}

	switch t := e.(type) {
	case *entity.Sensor:
		d := t.Description()
		cfg["state_topic"] = topics.State(key)
		if d.Enum != nil {
			cfg["device_class"] = "enum"
			cfg["options"] = d.Enum.Labels()
			break
		}
		if d.DeviceClass != "" {
			cfg["device_class"] = d.DeviceClass
		}
		if d.StateClass != "" {
			cfg["state_class"] = d.StateClass
		}
		if d.Unit != "" {
			cfg["unit_of_measurement"] = d.Unit
		}
		if d.Precision != nil {
			cfg["suggested_display_precision"] = *d.Precision
		}

	case *entity.Number:
		d := t.Description()
		cfg["state_topic"] = topics.State(key)
		cfg["command_topic"] = topics.Command(key)
		cfg["min"] = entity.ResolveMin(snap, d)
		cfg["max"] = entity.ResolveMax(snap, d)
		cfg["step"] = t.Step()
		cfg["mode"] = "slider"
		if d.Unit != "" {
			cfg["unit_of_measurement"] = d.Unit
		}

	case *entity.Switch:
		cfg["state_topic"] = topics.State(key)
		cfg["command_topic"] = topics.Command(key)
		cfg["payload_on"] = entity.PayloadOn
		cfg["payload_off"] = entity.PayloadOff

	case *entity.Select:
		cfg["state_topic"] = topics.State(key)
		cfg["command_topic"] = topics.Command(key)
		cfg["options"] = t.Options()

	case *entity.Button:
		cfg["command_topic"] = topics.Command(key)
		cfg["payload_press"] = entity.PayloadPress
	}

	return cfg
}
