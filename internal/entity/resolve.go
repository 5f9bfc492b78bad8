package entity

import "github.com/nerrad567/econext-bridge/internal/econext"

// SentinelDisconnected is reported by temperature parameters whose sensor is
// missing or broken.
const SentinelDisconnected = 999.0

// Bounds used when neither the controller nor the description has one.
const (
	DefaultMin = 0.0
	DefaultMax = 100.0
)

// ResolveMin returns the minimum bound for d against snap. In order:
// the live value of d.MinParamID or of the parameter's minvDP pointer, the
// parameter's static minv, the description fallback, then DefaultMin.
func ResolveMin(snap econext.Snapshot, d NumberDescription) float64 {
	p, ok := snap.Get(d.ParamID)
	pointer := d.MinParamID
	if pointer == "" && ok {
		pointer = p.MinVDP
	}
	var static *float64
	if ok {
		static = p.MinV
	}
	return resolveBound(snap, pointer, static, d.Min, DefaultMin)
}

// ResolveMax mirrors ResolveMin for the upper bound.
func ResolveMax(snap econext.Snapshot, d NumberDescription) float64 {
	p, ok := snap.Get(d.ParamID)
	pointer := d.MaxParamID
	if pointer == "" && ok {
		pointer = p.MaxVDP
	}
	var static *float64
	if ok {
		static = p.MaxV
	}
	return resolveBound(snap, pointer, static, d.Max, DefaultMax)
}

func resolveBound(snap econext.Snapshot, pointer string, static, fallback *float64, def float64) float64 {
	if pointer != "" {
		if v, ok := snap.Value(pointer); ok {
			if f, ok := v.Float(); ok {
				return f
			}
		}
	}
	if static != nil {
		return *static
	}
	if fallback != nil {
		return *fallback
	}
	return def
}

// IsDisconnected reports whether v is the disconnected-sensor sentinel.
func IsDisconnected(v econext.Value) bool {
	f, ok := v.Float()
	return ok && f == SentinelDisconnected
}

// GroupPresent reports whether a device group's hardware is present in
// snap. The controller is always present; DHW needs parameter 61 with a
// real reading; the heat pump needs parameter 1133 to exist.
func GroupPresent(snap econext.Snapshot, g DeviceGroup) bool {
	switch g {
	case DeviceController:
		return true
	case DeviceDHW:
		v, ok := snap.Value(econext.ParamDHWTemperature)
		return ok && !IsDisconnected(v)
	case DeviceHeatPump:
		_, ok := snap.Get(econext.ParamHeatPumpPresence)
		return ok
	default:
		return false
	}
}
