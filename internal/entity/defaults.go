package entity

import "github.com/nerrad567/econext-bridge/internal/econext"

// Operating mode raw values for parameter 162.
const (
	OperatingModeSummer = 1
	OperatingModeWinter = 2
	OperatingModeAuto   = 6
)

// OperatingModes maps the controller operating mode.
var OperatingModes = mustEnum(
	EnumOption{Value: OperatingModeSummer, Label: "summer"},
	EnumOption{Value: OperatingModeWinter, Label: "winter"},
	EnumOption{Value: OperatingModeAuto, Label: "auto"},
)

// DefaultTable returns the built-in entity table for ecoMAX360i class
// controllers.
func DefaultTable() Table {
	return Table{
		Sensors:  defaultSensors(),
		Numbers:  defaultNumbers(),
		Switches: defaultSwitches(),
		Selects:  defaultSelects(),
		Buttons:  defaultButtons(),
	}
}

func defaultSensors() []SensorDescription {
	diag := func(key, id, icon string) SensorDescription {
		return SensorDescription{Description: Description{
			Key: key, ParamID: id, Device: DeviceController, Icon: icon, Category: CategoryDiagnostic,
		}}
	}

	wifiSignal := diag("wifi_signal_strength", "380", "mdi:wifi")
	wifiSignal.Unit = UnitPercent
	wifiSignal.StateClass = StateClassMeasurement

	resets := diag("reset_counter", "13", "mdi:restart")
	resets.StateClass = StateClassMeasurement

	return []SensorDescription{
		{
			Description: Description{Key: "outdoor_temperature", ParamID: "68", Device: DeviceController},
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			Precision:   ptr(1),
		},
		diag("software_version", "0", "mdi:chip"),
		diag("hardware_version", "1", "mdi:chip"),
		diag("uid", econext.ParamUID, "mdi:identifier"),
		diag("device_name", econext.ParamDeviceName, "mdi:label"),
		diag("compilation_date", "11", "mdi:calendar"),
		resets,
		diag("wifi_ssid", "377", "mdi:wifi"),
		wifiSignal,
		diag("wifi_ip_address", "378", "mdi:ip-network"),
		diag("lan_ip_address", "382", "mdi:ip-network"),
		{
			Description: Description{Key: "dhw_temperature", ParamID: econext.ParamDHWTemperature, Device: DeviceDHW},
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			Precision:   ptr(1),
		},
		{
			Description: Description{Key: "heatpump_flow_temperature", ParamID: "1134", Device: DeviceHeatPump},
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			Precision:   ptr(1),
		},
	}
}

func defaultNumbers() []NumberDescription {
	return []NumberDescription{
		{
			Description: Description{Key: "summer_mode_on", ParamID: "702", Device: DeviceController, Icon: "mdi:weather-sunny", Category: CategoryConfig},
			Unit:        UnitCelsius,
			Min:         ptr(22.0),
			Max:         ptr(30.0),
			Step:        1,
		},
		{
			Description: Description{Key: "summer_mode_off", ParamID: "703", Device: DeviceController, Icon: "mdi:weather-sunny-off", Category: CategoryConfig},
			Unit:        UnitCelsius,
			Min:         ptr(0.0),
			Max:         ptr(24.0),
			Step:        1,
		},
		{
			Description: Description{Key: "heating_curve", ParamID: "273", Device: DeviceController, Icon: "mdi:chart-bell-curve", Category: CategoryConfig},
			Min:         ptr(0.1),
			Max:         ptr(4.0),
			Step:        0.1,
		},
		{
			Description: Description{Key: "dhw_target_temperature", ParamID: "103", Device: DeviceDHW, Icon: "mdi:water-thermometer"},
			Unit:        UnitCelsius,
			Min:         ptr(20.0),
			Max:         ptr(55.0),
			Step:        1,
		},
		{
			Description: Description{Key: "dhw_hysteresis", ParamID: "104", Device: DeviceDHW, Category: CategoryConfig},
			Unit:        UnitKelvin,
			Min:         ptr(1.0),
			Max:         ptr(30.0),
			Step:        1,
		},
	}
}

func defaultSwitches() []SwitchDescription {
	return []SwitchDescription{
		{Description: Description{Key: "cooling_support", ParamID: "485", Device: DeviceController, Icon: "mdi:snowflake"}},
		{Description: Description{Key: "dhw_disinfection", ParamID: "136", Device: DeviceDHW, Icon: "mdi:bacteria", Category: CategoryConfig}},
	}
}

func defaultSelects() []SelectDescription {
	return []SelectDescription{
		{
			Description: Description{Key: "operating_mode", ParamID: "162", Device: DeviceController, Icon: "mdi:sun-snowflake-variant"},
			Enum:        OperatingModes,
		},
	}
}

func defaultButtons() []ButtonDescription {
	return []ButtonDescription{
		{Description: Description{Key: "dhw_boost", ParamID: "115", Device: DeviceDHW, Icon: "mdi:water-boiler"}},
		{Description: Description{Key: "heatpump_alarm_reset", ParamID: "1160", Device: DeviceHeatPump, Icon: "mdi:alarm-light-off", Category: CategoryConfig}},
	}
}
