package entity

import (
	"context"
	"fmt"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// Source is what entities need from the polling coordinator.
// *coordinator.Coordinator satisfies it.
type Source interface {
	Snapshot() econext.Snapshot
	LastUpdateSuccess() bool
	Set(ctx context.Context, id string, value econext.Value) error
	Patch(id string, value econext.Value)
	RequestRefresh()
}

// Logger is the logging interface used by entities.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Entity is a typed view over one controller parameter.
//
// Every read is evaluated against the coordinator's current snapshot;
// entities hold no parameter state of their own.
type Entity interface {
	Key() string
	Capability() Capability
	ParamID() string
	Device() DeviceGroup
	Icon() string
	Category() Category

	// UniqueID is "<controller uid>_<param id>".
	UniqueID() string

	// Available is false while the last refresh failed, while the
	// parameter has no value, or when it reports a sentinel.
	Available() bool

	// State is the display form of the current value. False means the
	// entity has no state to show (no value, unmapped option, or a button).
	State() (string, bool)

	// Attributes holds capability-specific extras such as bounds and options.
	Attributes() map[string]any
}

// Commander is an entity that accepts text commands, as received from
// MQTT command topics or the API.
type Commander interface {
	Entity
	Command(ctx context.Context, payload string) error
}

// Command routes payload to e. Sensors return ErrReadOnly.
func Command(ctx context.Context, e Entity, payload string) error {
	c, ok := e.(Commander)
	if !ok {
		return fmt.Errorf("%w: %s", ErrReadOnly, e.Key())
	}
	return c.Command(ctx, payload)
}

// base carries the coordinator binding shared by all capabilities.
type base struct {
	desc Description
	src  Source
	log  Logger
}

func (b *base) Key() string         { return b.desc.Key }
func (b *base) ParamID() string     { return b.desc.ParamID }
func (b *base) Device() DeviceGroup { return b.desc.Device }
func (b *base) Icon() string        { return b.desc.Icon }
func (b *base) Category() Category  { return b.desc.Category }

func (b *base) UniqueID() string {
	uid, _ := b.src.Snapshot().Identity()
	return uid + "_" + b.desc.ParamID
}

func (b *base) param() (econext.Parameter, bool) {
	return b.src.Snapshot().Get(b.desc.ParamID)
}

func (b *base) value() (econext.Value, bool) {
	return b.src.Snapshot().Value(b.desc.ParamID)
}

func (b *base) Available() bool {
	if !b.src.LastUpdateSuccess() {
		return false
	}
	_, ok := b.value()
	return ok
}

// write sends v to the controller. On success the snapshot is patched
// when patch is set, otherwise a refresh is requested.
func (b *base) write(ctx context.Context, v econext.Value, patch bool) error {
	b.log.Debug("setting parameter", "key", b.desc.Key, "param_id", b.desc.ParamID, "value", v.String())

	if err := b.src.Set(ctx, b.desc.ParamID, v); err != nil {
		b.log.Warn("set parameter failed",
			"key", b.desc.Key,
			"param_id", b.desc.ParamID,
			"value", v.String(),
			"error", err,
		)
		return fmt.Errorf("setting %s: %w", b.desc.Key, err)
	}

	if patch {
		b.src.Patch(b.desc.ParamID, v)
	} else {
		b.src.RequestRefresh()
	}
	return nil
}
