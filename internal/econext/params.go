package econext

import (
	"bytes"
	"cmp"
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Well-known parameter IDs.
const (
	ParamUID              = "10"
	ParamDeviceName       = "374"
	ParamDHWTemperature   = "61"
	ParamHeatPumpPresence = "1133"
)

// Identity defaults used when the controller does not report them.
const (
	UnknownUID        = "unknown"
	DefaultDeviceName = "ecoMAX"
)

// Parameter is one named device setting or reading.
type Parameter struct {
	Value Value  `json:"value"`
	Name  string `json:"name,omitempty"`
	Unit  string `json:"unit,omitempty"`

	// MinV and MaxV are static bounds; nil when not reported.
	MinV *float64 `json:"minv,omitempty"`
	MaxV *float64 `json:"maxv,omitempty"`

	// MinVDP and MaxVDP name another parameter whose live value is the
	// bound. Empty when not reported.
	MinVDP string `json:"minvDP,omitempty"`
	MaxVDP string `json:"maxvDP,omitempty"`

	// Info is an opaque firmware field passed through untouched.
	Info *float64 `json:"info,omitempty"`
}

// wireParameter mirrors the JSON object; bounds and pointers arrive as
// either numbers or strings depending on firmware.
type wireParameter struct {
	Value  Value           `json:"value"`
	Name   json.RawMessage `json:"name"`
	Unit   json.RawMessage `json:"unit"`
	MinV   json.RawMessage `json:"minv"`
	MaxV   json.RawMessage `json:"maxv"`
	MinVDP json.RawMessage `json:"minvDP"`
	MaxVDP json.RawMessage `json:"maxvDP"`
	Info   json.RawMessage `json:"info"`
}

// UnmarshalJSON decodes the controller's parameter object leniently:
// unknown or mistyped optional fields are dropped rather than failing the
// whole snapshot.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var w wireParameter
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Parameter{
		Value:  w.Value,
		Name:   rawText(w.Name),
		Unit:   rawText(w.Unit),
		MinV:   rawFloat(w.MinV),
		MaxV:   rawFloat(w.MaxV),
		MinVDP: rawID(w.MinVDP),
		MaxVDP: rawID(w.MaxVDP),
		Info:   rawFloat(w.Info),
	}
	return nil
}

func rawText(raw json.RawMessage) string {
	var v Value
	if len(raw) == 0 || v.UnmarshalJSON(raw) != nil {
		return ""
	}
	return v.String()
}

func rawFloat(raw json.RawMessage) *float64 {
	var v Value
	if len(raw) == 0 || v.UnmarshalJSON(raw) != nil {
		return nil
	}
	f, ok := v.Float()
	if !ok {
		return nil
	}
	return &f
}

// rawID accepts 703, 703.0 or "703". Null, empty and negative IDs mean no pointer.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var v Value
	if len(raw) == 0 || v.UnmarshalJSON(raw) != nil || !v.Present() {
		return ""
	}
	if n, ok := v.Int(); ok {
		if n < 0 {
			return ""
		}
		return strconv.FormatInt(n, 10)
	}
	return strings.TrimSpace(v.String())
}

// Snapshot is the complete parameter set from one successful fetch, keyed
// by string parameter ID. Treat it as read-only; use With to derive a
// patched copy.
type Snapshot map[string]Parameter

// Get returns the parameter with the given ID.
func (s Snapshot) Get(id string) (Parameter, bool) {
	p, ok := s[id]
	return p, ok
}

// Value returns the value of the parameter with the given ID. Absent
// parameters and parameters without a value both report false.
func (s Snapshot) Value(id string) (Value, bool) {
	p, ok := s[id]
	if !ok || !p.Value.Present() {
		return Value{}, false
	}
	return p.Value, true
}

// Len returns the number of parameters.
func (s Snapshot) Len() int {
	return len(s)
}

// IDs returns parameter IDs in numeric order, non-numeric IDs last.
func (s Snapshot) IDs() []string {
	ids := slices.Collect(maps.Keys(s))
	slices.SortFunc(ids, compareIDs)
	return ids
}

func compareIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// With returns a copy of s where parameter id holds value. The receiver is
// never modified. A missing parameter is added with only its value set.
func (s Snapshot) With(id string, value Value) Snapshot {
	out := make(Snapshot, len(s)+1)
	maps.Copy(out, s)
	p := out[id]
	p.Value = value
	out[id] = p
	return out
}

// Identity returns the controller UID and display name, falling back to
// UnknownUID and DefaultDeviceName.
func (s Snapshot) Identity() (uid, name string) {
	uid, name = UnknownUID, DefaultDeviceName
	if v, ok := s.Value(ParamUID); ok && v.String() != "" {
		uid = v.String()
	}
	if v, ok := s.Value(ParamDeviceName); ok && v.String() != "" {
		name = v.String()
	}
	return uid, name
}

// DeviceInfo is the result of TestConnection.
type DeviceInfo struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	ParamCount int    `json:"param_count"`
}
