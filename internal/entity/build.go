package entity

import "github.com/nerrad567/econext-bridge/internal/econext"

// Build creates entities for every description in table whose parameter is
// present in the source's current snapshot and whose device group passes
// its gate. Skipped descriptions are logged at debug level.
func Build(src Source, table Table, log Logger) []Entity {
	if log == nil {
		log = noopLogger{}
	}
	snap := src.Snapshot()
	gates := map[DeviceGroup]bool{
		DeviceController: true,
		DeviceDHW:        GroupPresent(snap, DeviceDHW),
		DeviceHeatPump:   GroupPresent(snap, DeviceHeatPump),
	}

	var out []Entity
	include := func(c Capability, d Description) bool {
		if !gates[d.Device] {
			log.Debug("skipping entity, device not present", "capability", string(c), "key", d.Key, "device", string(d.Device))
			return false
		}
		if _, ok := snap.Get(d.ParamID); !ok {
			log.Debug("skipping entity, parameter not found", "capability", string(c), "key", d.Key, "param_id", d.ParamID)
			return false
		}
		return true
	}
	bind := func(d Description) base {
		return base{desc: d, src: src, log: log}
	}

	for _, d := range table.Sensors {
		if include(CapabilitySensor, d.Description) {
			out = append(out, &Sensor{base: bind(d.Description), desc: d})
		}
	}
	for _, d := range table.Numbers {
		if include(CapabilityNumber, d.Description) {
			out = append(out, &Number{base: bind(d.Description), desc: d})
		}
	}
	for _, d := range table.Switches {
		if include(CapabilitySwitch, d.Description) {
			out = append(out, &Switch{base: bind(d.Description), desc: d})
		}
	}
	for _, d := range table.Selects {
		if include(CapabilitySelect, d.Description) {
			out = append(out, &Select{base: bind(d.Description), desc: d})
		}
	}
	for _, d := range table.Buttons {
		if include(CapabilityButton, d.Description) {
			out = append(out, &Button{base: bind(d.Description), desc: d})
		}
	}

	log.Info("entities built",
		"count", len(out),
		"described", table.Len(),
		"dhw", gates[DeviceDHW],
		"heatpump", gates[DeviceHeatPump],
	)
	return out
}

// Index is a read-only key lookup over a built entity set.
type Index struct {
	list  []Entity
	byKey map[string]Entity
}

// NewIndex indexes entities by key.
func NewIndex(entities []Entity) *Index {
	idx := &Index{list: entities, byKey: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		idx.byKey[e.Key()] = e
	}
	return idx
}

// Get returns the entity with the given key.
func (i *Index) Get(key string) (Entity, bool) {
	e, ok := i.byKey[key]
	return e, ok
}

// All returns the entities in build order. Callers must not modify it.
func (i *Index) All() []Entity { return i.list }

// Len returns the number of entities.
func (i *Index) Len() int { return len(i.list) }

// ByParam returns the entities bound to a parameter ID.
func (i *Index) ByParam(id string) []Entity {
	var out []Entity
	for _, e := range i.list {
		if e.ParamID() == id {
			out = append(out, e)
		}
	}
	return out
}

// NumericValue returns the entity's current value as a number, for
// sensors, numbers and switches. Enum-backed and text entities report false.
func NumericValue(e Entity) (float64, bool) {
	var v econext.Value
	var ok bool
	switch t := e.(type) {
	case *Sensor:
		if t.desc.Enum != nil || !t.Available() {
			return 0, false
		}
		v, ok = t.value()
	case *Number:
		v, ok = t.value()
	case *Switch:
		v, ok = t.value()
	default:
		return 0, false
	}
	if !ok || !v.IsNumber() {
		return 0, false
	}
	return v.Float()
}
