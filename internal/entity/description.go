package entity

// Capability is the kind of entity a description produces.
type Capability string

// Capabilities.
const (
	CapabilitySensor Capability = "sensor"
	CapabilityNumber Capability = "number"
	CapabilitySwitch Capability = "switch"
	CapabilitySelect Capability = "select"
	CapabilityButton Capability = "button"
)

// DeviceGroup is the logical device an entity belongs to.
type DeviceGroup string

// Device groups. DHW and heat pump are sub-devices of the controller and
// only exist when their gate parameter says the hardware is present.
const (
	DeviceController DeviceGroup = "controller"
	DeviceDHW        DeviceGroup = "dhw"
	DeviceHeatPump   DeviceGroup = "heatpump"
)

// IsValid reports whether g is a known device group.
func (g DeviceGroup) IsValid() bool {
	switch g {
	case DeviceController, DeviceDHW, DeviceHeatPump:
		return true
	}
	return false
}

// Category is the Home Assistant entity category.
type Category string

// Categories. The empty category is a primary entity.
const (
	CategoryNone       Category = ""
	CategoryDiagnostic Category = "diagnostic"
	CategoryConfig     Category = "config"
)

// Sensor device classes and state classes that carry behaviour here.
const (
	DeviceClassTemperature = "temperature"
	StateClassMeasurement  = "measurement"
)

// Units.
const (
	UnitCelsius = "°C"
	UnitPercent = "%"
	UnitKelvin  = "K"
)

// Description holds the fields shared by every entity description.
type Description struct {
	Key      string
	ParamID  string
	Device   DeviceGroup
	Icon     string
	Category Category
}

// SensorDescription describes a read-only entity.
type SensorDescription struct {
	Description
	DeviceClass string
	StateClass  string
	Unit        string

	// Precision rounds numeric readings to this many decimals when set.
	Precision *int

	// Enum maps raw values to labels for enum sensors.
	Enum *EnumMap
}

// NumberDescription describes a settable numeric parameter.
type NumberDescription struct {
	Description
	Unit string

	// Min and Max are fallbacks used when the controller reports no bound.
	Min *float64
	Max *float64

	// MinParamID and MaxParamID name sibling parameters whose live values
	// are the bounds. They take precedence over the controller's own
	// minvDP/maxvDP pointers.
	MinParamID string
	MaxParamID string

	Step float64
}

// SwitchDescription describes an on/off parameter (1 on, 0 off).
type SwitchDescription struct {
	Description
}

// SelectDescription describes an enumerated settable parameter.
type SelectDescription struct {
	Description
	Enum *EnumMap
}

// ButtonDescription describes an action parameter.
type ButtonDescription struct {
	Description

	// PressValue is written on press. Zero means 1.
	PressValue float64
}

func (d ButtonDescription) pressValue() float64 {
	if d.PressValue == 0 {
		return 1
	}
	return d.PressValue
}

func ptr[T any](v T) *T { return &v }
