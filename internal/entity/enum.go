package entity

import (
	"fmt"
	"slices"

	"github.com/vishalkuo/bimap"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// EnumOption pairs a raw controller value with its display label.
type EnumOption struct {
	Value int64  `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// EnumMap is a bijective mapping between raw integer values and labels.
// Options keep their declaration order. An EnumMap is immutable once built.
type EnumMap struct {
	options []EnumOption
	bm      *bimap.BiMap[int64, string]
}

// NewEnumMap builds an EnumMap. Duplicate raw values or labels are rejected.
func NewEnumMap(options ...EnumOption) (*EnumMap, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: enum has no options", ErrInvalidTable)
	}

	forward := make(map[int64]string, len(options))
	labels := make(map[string]struct{}, len(options))
	for _, o := range options {
		if o.Label == "" {
			return nil, fmt.Errorf("%w: enum value %d has empty label", ErrInvalidTable, o.Value)
		}
		if _, dup := forward[o.Value]; dup {
			return nil, fmt.Errorf("%w: duplicate enum value %d", ErrInvalidTable, o.Value)
		}
		if _, dup := labels[o.Label]; dup {
			return nil, fmt.Errorf("%w: duplicate enum label %q", ErrInvalidTable, o.Label)
		}
		forward[o.Value] = o.Label
		labels[o.Label] = struct{}{}
	}

	bm := bimap.NewBiMapFromMap(forward)
	bm.MakeImmutable()

	return &EnumMap{options: slices.Clone(options), bm: bm}, nil
}

func mustEnum(options ...EnumOption) *EnumMap {
	m, err := NewEnumMap(options...)
	if err != nil {
		panic(err)
	}
	return m
}

// Label maps a raw value to its label. Values that are not integral
// numbers, or that have no mapping, report false ("no current option").
func (m *EnumMap) Label(v econext.Value) (string, bool) {
	if m == nil {
		return "", false
	}
	raw, ok := v.Int()
	if !ok {
		return "", false
	}
	return m.bm.Get(raw)
}

// Raw maps a label back to its raw value.
func (m *EnumMap) Raw(label string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	return m.bm.GetInverse(label)
}

// Labels returns the labels in declaration order.
func (m *EnumMap) Labels() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.options))
	for i, o := range m.options {
		out[i] = o.Label
	}
	return out
}

// Options returns a copy of the options in declaration order.
func (m *EnumMap) Options() []EnumOption {
	if m == nil {
		return nil
	}
	return slices.Clone(m.options)
}
