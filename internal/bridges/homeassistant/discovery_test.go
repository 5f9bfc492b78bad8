package homeassistant

import (
	"slices"
	"testing"

	"github.com/nerrad567/econext-bridge/internal/coordinator"
	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/entity"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/mqtt"
)

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"outdoor_temperature":  "Outdoor temperature",
		"dhw_boost":            "DHW boost",
		"wifi_signal_strength": "WiFi signal strength",
		"lan_ip_address":       "LAN IP address",
		"uid":                  "UID",
		"operating_mode":       "Operating mode",
	}
	for key, want := range tests {
		if got := DisplayName(key); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestDeviceBlock(t *testing.T) {
	snap := fixture().With(econext.ParamUID, econext.Text(testUID))

	ctrl := DeviceBlock(snap, entity.DeviceController)
	if ctrl.Identifiers[0] != testUID || ctrl.Name != "ecoMAX360i" || ctrl.SWVersion != "S024.25" || ctrl.ViaDevice != "" {
		t.Errorf("controller block = %+v", ctrl)
	}

	hp := DeviceBlock(snap, entity.DeviceHeatPump)
	if hp.Identifiers[0] != testUID+"_heatpump" || hp.Name != "ecoMAX360i Heat Pump" || hp.ViaDevice != testUID || hp.SWVersion != "" {
		t.Errorf("heat pump block = %+v", hp)
	}

	anon := DeviceBlock(econext.Snapshot{}, entity.DeviceController)
	if anon.Identifiers[0] != econext.UnknownUID || anon.Name != econext.DefaultDeviceName {
		t.Errorf("empty snapshot block = %+v", anon)
	}
}

func discoveryFor(t *testing.T, key string) map[string]any {
	t.Helper()
	c := coordinator.New(&fakeFetcher{snap: fixture()}, coordinator.Options{})
	if err := c.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}
	idx := entity.NewIndex(entity.Build(c, entity.DefaultTable(), nil))
	e, ok := idx.Get(key)
	if !ok {
		t.Fatalf("entity %q not built", key)
	}
	return DiscoveryPayload(e, c.Snapshot(), mqtt.NewTopics("econext", testUID))
}

func TestDiscoveryPayload_Capabilities(t *testing.T) {
	t.Run("number", func(t *testing.T) {
		cfg := discoveryFor(t, "summer_mode_off")
		if cfg["min"] != 0.0 || cfg["max"] != 24.0 || cfg["mode"] != "slider" {
			t.Errorf("number bounds = %v..%v mode %v", cfg["min"], cfg["max"], cfg["mode"])
		}
		if cfg["entity_category"] != "config" {
			t.Errorf("entity_category = %v", cfg["entity_category"])
		}
	})

	t.Run("select", func(t *testing.T) {
		cfg := discoveryFor(t, "operating_mode")
		opts, _ := cfg["options"].([]string)
		if !slices.Equal(opts, []string{"summer", "winter", "auto"}) {
			t.Errorf("options = %v", cfg["options"])
		}
	})

	t.Run("switch", func(t *testing.T) {
		cfg := discoveryFor(t, "cooling_support")
		if cfg["payload_on"] != "ON" || cfg["payload_off"] != "OFF" || cfg["icon"] != "mdi:snowflake" {
			t.Errorf("switch config = %v", cfg)
		}
	})

	t.Run("button", func(t *testing.T) {
		cfg := discoveryFor(t, "dhw_boost")
		if cfg["payload_press"] != "PRESS" {
			t.Errorf("payload_press = %v", cfg["payload_press"])
		}
		if _, ok := cfg["state_topic"]; ok {
			t.Error("button must not have a state_topic")
		}
	})

	t.Run("sensor", func(t *testing.T) {
		cfg := discoveryFor(t, "outdoor_temperature")
		if cfg["unit_of_measurement"] != "°C" || cfg["state_class"] != "measurement" || cfg["suggested_display_precision"] != 1 {
			t.Errorf("sensor config = %v", cfg)
		}
		if _, ok := cfg["entity_category"]; ok {
			t.Error("primary sensor must not carry an entity_category")
		}
	})
}
