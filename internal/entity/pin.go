package entity

import "github.com/nerrad567/econext-bridge/internal/econext"

// pinnedSource answers reads from one fixed snapshot. Writes, patches and
// refresh requests still reach the live source.
type pinnedSource struct {
	Source
	snap    econext.Snapshot
	success bool
}

func (p pinnedSource) Snapshot() econext.Snapshot { return p.snap }
func (p pinnedSource) LastUpdateSuccess() bool    { return p.success }

// At returns a copy of e whose availability, state, attributes and bounds
// are all evaluated against snap, with success standing in for the last
// refresh result. Use it wherever several reads must agree with each other.
func At(e Entity, snap econext.Snapshot, success bool) Entity {
	pin := func(b base) base {
		live := b.src
		if p, ok := live.(pinnedSource); ok {
			live = p.Source
		}
		b.src = pinnedSource{Source: live, snap: snap, success: success}
		return b
	}

	switch t := e.(type) {
	case *Sensor:
		c := *t
		c.base = pin(t.base)
		return &c
	case *Number:
		c := *t
		c.base = pin(t.base)
		return &c
	case *Select:
		c := *t
		c.base = pin(t.base)
		return &c
	case *Switch:
		c := *t
		c.base = pin(t.base)
		return &c
	case *Button:
		c := *t
		c.base = pin(t.base)
		return &c
	default:
		return e
	}
}
