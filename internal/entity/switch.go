package entity

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// Switch payloads, matching Home Assistant's MQTT switch defaults.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// Switch is an on/off entity. The controller uses 1 for on and 0 for off.
type Switch struct {
	base
	desc SwitchDescription
}

var _ Commander = (*Switch)(nil)

// Capability implements Entity.
func (s *Switch) Capability() Capability { return CapabilitySwitch }

// IsOn reports the switch state. Any non-zero value is on.
func (s *Switch) IsOn() (on, ok bool) {
	v, ok := s.value()
	if !ok {
		return false, false
	}
	f, ok := v.Float()
	if !ok {
		return false, false
	}
	return f != 0, true
}

// State implements Entity.
func (s *Switch) State() (string, bool) {
	on, ok := s.IsOn()
	if !ok {
		return "", false
	}
	if on {
		return PayloadOn, true
	}
	return PayloadOff, true
}

// Attributes implements Entity.
func (s *Switch) Attributes() map[string]any { return map[string]any{} }

// TurnOn writes 1.
func (s *Switch) TurnOn(ctx context.Context) error {
	return s.write(ctx, econext.Number(1), true)
}

// TurnOff writes 0.
func (s *Switch) TurnOff(ctx context.Context) error {
	return s.write(ctx, econext.Number(0), true)
}

// Command accepts ON/OFF, 1/0 and true/false, case-insensitively.
func (s *Switch) Command(ctx context.Context, payload string) error {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "on", "1", "true":
		return s.TurnOn(ctx)
	case "off", "0", "false":
		return s.TurnOff(ctx)
	default:
		return fmt.Errorf("%w: %s expects ON or OFF, got %q", ErrInvalidCommand, s.desc.Key, payload)
	}
}
