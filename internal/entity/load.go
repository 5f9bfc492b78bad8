package entity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the YAML layout of an entity table override.
type tableFile struct {
	// ReplaceDefaults discards the built-in table instead of merging.
	ReplaceDefaults bool `yaml:"replace_defaults"`

	// Remove lists built-in keys to drop.
	Remove []string `yaml:"remove"`

	Sensors  []sensorEntry `yaml:"sensors"`
	Numbers  []numberEntry `yaml:"numbers"`
	Switches []commonEntry `yaml:"switches"`
	Selects  []selectEntry `yaml:"selects"`
	Buttons  []buttonEntry `yaml:"buttons"`
}

type commonEntry struct {
	Key      string `yaml:"key"`
	ParamID  string `yaml:"param_id"`
	Device   string `yaml:"device"`
	Icon     string `yaml:"icon"`
	Category string `yaml:"category"`
}

func (c commonEntry) description() Description {
	device := DeviceGroup(c.Device)
	if device == "" {
		device = DeviceController
	}
	return Description{
		Key:      c.Key,
		ParamID:  c.ParamID,
		Device:   device,
		Icon:     c.Icon,
		Category: Category(c.Category),
	}
}

type sensorEntry struct {
	commonEntry `yaml:",inline"`
	DeviceClass string       `yaml:"device_class"`
	StateClass  string       `yaml:"state_class"`
	Unit        string       `yaml:"unit"`
	Precision   *int         `yaml:"precision"`
	Options     []EnumOption `yaml:"options"`
}

type numberEntry struct {
	commonEntry `yaml:",inline"`
	Unit        string   `yaml:"unit"`
	Min         *float64 `yaml:"min"`
	Max         *float64 `yaml:"max"`
	MinParamID  string   `yaml:"min_param_id"`
	MaxParamID  string   `yaml:"max_param_id"`
	Step        float64  `yaml:"step"`
}

type selectEntry struct {
	commonEntry `yaml:",inline"`
	Options     []EnumOption `yaml:"options"`
}

type buttonEntry struct {
	commonEntry `yaml:",inline"`
	PressValue  float64 `yaml:"press_value"`
}

// LoadTable reads an entity table override from a YAML file and applies it
// to the built-in table. Entries replace built-in descriptions with the same
// key; new keys are added. The result is validated.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading entity table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable is LoadTable for in-memory YAML.
func ParseTable(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, fmt.Errorf("%w: parsing YAML: %w", ErrInvalidTable, err)
	}

	override, err := f.table()
	if err != nil {
		return Table{}, err
	}

	base := DefaultTable()
	if f.ReplaceDefaults {
		base = Table{}
	}
	t := base.merge(override, f.Remove)

	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func (f tableFile) table() (Table, error) {
	var t Table

	for _, e := range f.Sensors {
		d := SensorDescription{
			Description: e.description(),
			DeviceClass: e.DeviceClass,
			StateClass:  e.StateClass,
			Unit:        e.Unit,
			Precision:   e.Precision,
		}
		if len(e.Options) > 0 {
			enum, err := NewEnumMap(e.Options...)
			if err != nil {
				return Table{}, fmt.Errorf("sensor %q: %w", e.Key, err)
			}
			d.Enum = enum
		}
		t.Sensors = append(t.Sensors, d)
	}

	for _, e := range f.Numbers {
		t.Numbers = append(t.Numbers, NumberDescription{
			Description: e.description(),
			Unit:        e.Unit,
			Min:         e.Min,
			Max:         e.Max,
			MinParamID:  e.MinParamID,
			MaxParamID:  e.MaxParamID,
			Step:        e.Step,
		})
	}

	for _, e := range f.Switches {
		t.Switches = append(t.Switches, SwitchDescription{Description: e.description()})
	}

	for _, e := range f.Selects {
		enum, err := NewEnumMap(e.Options...)
		if err != nil {
			return Table{}, fmt.Errorf("select %q: %w", e.Key, err)
		}
		t.Selects = append(t.Selects, SelectDescription{Description: e.description(), Enum: enum})
	}

	for _, e := range f.Buttons {
		t.Buttons = append(t.Buttons, ButtonDescription{Description: e.description(), PressValue: e.PressValue})
	}

	return t, nil
}
