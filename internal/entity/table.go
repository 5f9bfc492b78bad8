package entity

import (
	"errors"
	"fmt"
	"slices"
)

// Table is the complete set of entity descriptions, built once at startup
// and never modified afterwards.
type Table struct {
	Sensors  []SensorDescription
	Numbers  []NumberDescription
	Switches []SwitchDescription
	Selects  []SelectDescription
	Buttons  []ButtonDescription
}

// Len returns the total number of descriptions.
func (t Table) Len() int {
	return len(t.Sensors) + len(t.Numbers) + len(t.Switches) + len(t.Selects) + len(t.Buttons)
}

// Keys returns every description key in table order.
func (t Table) Keys() []string {
	keys := make([]string, 0, t.Len())
	for _, d := range t.Sensors {
		keys = append(keys, d.Key)
	}
	for _, d := range t.Numbers {
		keys = append(keys, d.Key)
	}
	for _, d := range t.Switches {
		keys = append(keys, d.Key)
	}
	for _, d := range t.Selects {
		keys = append(keys, d.Key)
	}
	for _, d := range t.Buttons {
		keys = append(keys, d.Key)
	}
	return keys
}

// Validate checks that keys are unique across the whole table (they share
// one MQTT topic namespace), parameter IDs are set, device groups are known
// and enum-backed descriptions carry an enum.
func (t Table) Validate() error {
	var errs []error
	seen := make(map[string]bool, t.Len())

	check := func(c Capability, d Description) {
		switch {
		case d.Key == "":
			errs = append(errs, fmt.Errorf("%s with param %q has no key", c, d.ParamID))
			return
		case seen[d.Key]:
			errs = append(errs, fmt.Errorf("duplicate key %q", d.Key))
		}
		seen[d.Key] = true
		if d.ParamID == "" {
			errs = append(errs, fmt.Errorf("%s %q has no param_id", c, d.Key))
		}
		if !d.Device.IsValid() {
			errs = append(errs, fmt.Errorf("%s %q has unknown device %q", c, d.Key, d.Device))
		}
		switch d.Category {
		case CategoryNone, CategoryDiagnostic, CategoryConfig:
		default:
			errs = append(errs, fmt.Errorf("%s %q has unknown category %q", c, d.Key, d.Category))
		}
	}

	for _, d := range t.Sensors {
		check(CapabilitySensor, d.Description)
	}
	for _, d := range t.Numbers {
		check(CapabilityNumber, d.Description)
		if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
			errs = append(errs, fmt.Errorf("number %q has min %v above max %v", d.Key, *d.Min, *d.Max))
		}
		if d.Step < 0 {
			errs = append(errs, fmt.Errorf("number %q has negative step", d.Key))
		}
	}
	for _, d := range t.Switches {
		check(CapabilitySwitch, d.Description)
	}
	for _, d := range t.Selects {
		check(CapabilitySelect, d.Description)
		if d.Enum == nil {
			errs = append(errs, fmt.Errorf("select %q has no options", d.Key))
		}
	}
	for _, d := range t.Buttons {
		check(CapabilityButton, d.Description)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(errs...))
	}
	return nil
}

// merge returns t with every description in o replacing the one with the
// same key, new keys appended, and keys listed in remove dropped.
func (t Table) merge(o Table, remove []string) Table {
	drop := make(map[string]bool, o.Len()+len(remove))
	for _, k := range o.Keys() {
		drop[k] = true
	}
	for _, k := range remove {
		drop[k] = true
	}

	return Table{
		Sensors:  mergeSlice(t.Sensors, o.Sensors, drop, func(d SensorDescription) string { return d.Key }),
		Numbers:  mergeSlice(t.Numbers, o.Numbers, drop, func(d NumberDescription) string { return d.Key }),
		Switches: mergeSlice(t.Switches, o.Switches, drop, func(d SwitchDescription) string { return d.Key }),
		Selects:  mergeSlice(t.Selects, o.Selects, drop, func(d SelectDescription) string { return d.Key }),
		Buttons:  mergeSlice(t.Buttons, o.Buttons, drop, func(d ButtonDescription) string { return d.Key }),
	}
}

func mergeSlice[D any](base, over []D, drop map[string]bool, key func(D) string) []D {
	out := slices.DeleteFunc(slices.Clone(base), func(d D) bool { return drop[key(d)] })
	return append(out, over...)
}
