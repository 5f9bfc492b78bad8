package entity

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// Number is a settable numeric entity with live bounds.
type Number struct {
	base
	desc NumberDescription
}

var _ Commander = (*Number)(nil)

// Capability implements Entity.
func (n *Number) Capability() Capability { return CapabilityNumber }

// Description returns the number's description.
func (n *Number) Description() NumberDescription { return n.desc }

// Value returns the current numeric value.
func (n *Number) Value() (float64, bool) {
	v, ok := n.value()
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Min returns the minimum bound resolved against the current snapshot.
func (n *Number) Min() float64 { return ResolveMin(n.src.Snapshot(), n.desc) }

// Max returns the maximum bound resolved against the current snapshot.
func (n *Number) Max() float64 { return ResolveMax(n.src.Snapshot(), n.desc) }

// Step returns the UI step, 1 when the description has none.
func (n *Number) Step() float64 {
	if n.desc.Step <= 0 {
		return 1
	}
	return n.desc.Step
}

// State implements Entity.
func (n *Number) State() (string, bool) {
	f, ok := n.Value()
	if !ok {
		return "", false
	}
	return econext.Number(f).String(), true
}

// Attributes implements Entity.
func (n *Number) Attributes() map[string]any {
	snap := n.src.Snapshot()
	attrs := map[string]any{
		"min":  ResolveMin(snap, n.desc),
		"max":  ResolveMax(snap, n.desc),
		"step": n.Step(),
	}
	if n.desc.Unit != "" {
		attrs["unit"] = n.desc.Unit
	}
	return attrs
}

// SetValue writes v to the controller.
//
// An unchanged value is a no-op. A value above the maximum is logged and
// still written; one below the minimum returns ErrBelowMinimum without a
// device call. Integral values go on the wire as integers.
func (n *Number) SetValue(ctx context.Context, v float64) error {
	snap := n.src.Snapshot()
	if cur, ok := snap.Value(n.desc.ParamID); ok {
		if f, isNum := cur.Float(); isNum && f == v {
			return nil
		}
	}

	lo, hi := ResolveMin(snap, n.desc), ResolveMax(snap, n.desc)

	if v > hi {
		n.log.Warn("requested value exceeds maximum", "key", n.desc.Key, "value", v, "max", hi)
	}
	if v < lo {
		n.log.Warn("requested value below minimum", "key", n.desc.Key, "value", v, "min", lo)
		return fmt.Errorf("%w: %s %v < %v", ErrBelowMinimum, n.desc.Key, v, lo)
	}

	return n.write(ctx, econext.Number(v), true)
}

// Command parses payload as a number and calls SetValue.
func (n *Number) Command(ctx context.Context, payload string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s expects a number, got %q", ErrInvalidCommand, n.desc.Key, payload)
	}
	return n.SetValue(ctx, v)
}
