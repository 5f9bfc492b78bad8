package entity

import (
	"math"
	"strconv"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// Sensor is a read-only entity.
type Sensor struct {
	base
	desc SensorDescription
}

var _ Entity = (*Sensor)(nil)

// Capability implements Entity.
func (s *Sensor) Capability() Capability { return CapabilitySensor }

// Description returns the sensor's description.
func (s *Sensor) Description() SensorDescription { return s.desc }

// Available adds the disconnected-sensor check for temperature sensors.
func (s *Sensor) Available() bool {
	if !s.base.Available() {
		return false
	}
	v, _ := s.value()
	return !s.disconnected(v)
}

// disconnected reports a temperature sensor reading the 999 sentinel.
func (s *Sensor) disconnected(v econext.Value) bool {
	return s.desc.DeviceClass == DeviceClassTemperature && IsDisconnected(v)
}

// State returns the enum label, the reading rounded to the description's
// precision, or the raw value. A disconnected sensor has no state.
func (s *Sensor) State() (string, bool) {
	v, ok := s.value()
	if !ok || s.disconnected(v) {
		return "", false
	}

	if s.desc.Enum != nil {
		return s.desc.Enum.Label(v)
	}

	if s.desc.Precision != nil && v.IsNumber() {
		f, _ := v.Float()
		p := *s.desc.Precision
		scale := math.Pow(10, float64(p))
		return strconv.FormatFloat(math.Round(f*scale)/scale, 'f', p, 64), true
	}

	return v.String(), true
}

// Attributes implements Entity.
func (s *Sensor) Attributes() map[string]any {
	attrs := map[string]any{}
	if s.desc.DeviceClass != "" {
		attrs["device_class"] = s.desc.DeviceClass
	}
	if s.desc.StateClass != "" {
		attrs["state_class"] = s.desc.StateClass
	}
	if s.desc.Unit != "" {
		attrs["unit"] = s.desc.Unit
	}
	if s.desc.Precision != nil {
		attrs["precision"] = *s.desc.Precision
	}
	if s.desc.Enum != nil {
		attrs["options"] = s.desc.Enum.Labels()
	}
	return attrs
}
