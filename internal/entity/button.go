package entity

import (
	"context"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// PayloadPress is Home Assistant's default MQTT button payload.
const PayloadPress = "PRESS"

// Button triggers an action on the controller.
type Button struct {
	base
	desc ButtonDescription
}

var _ Commander = (*Button)(nil)

// Capability implements Entity.
func (b *Button) Capability() Capability { return CapabilityButton }

// Available only depends on the last refresh; a button's parameter value
// has no meaning between presses.
func (b *Button) Available() bool {
	if !b.src.LastUpdateSuccess() {
		return false
	}
	_, ok := b.param()
	return ok
}

// State implements Entity. Buttons have no state.
func (b *Button) State() (string, bool) { return "", false }

// Attributes implements Entity.
func (b *Button) Attributes() map[string]any { return map[string]any{} }

// Press writes the press value and asks for a refresh.
func (b *Button) Press(ctx context.Context) error {
	return b.write(ctx, econext.Number(b.desc.pressValue()), false)
}

// Command presses the button whatever the payload.
func (b *Button) Command(ctx context.Context, _ string) error {
	return b.Press(ctx)
}
