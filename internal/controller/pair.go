package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// Pairing failure reasons.
const (
	ReasonCannotConnect = "cannot_connect"
	ReasonInvalidAuth   = "invalid_auth"
	ReasonAlreadyPaired = "already_configured"
	ReasonUnknown       = "unknown"
)

// Tester checks that a controller answers. *econext.Client satisfies it.
type Tester interface {
	TestConnection(ctx context.Context) (econext.DeviceInfo, error)
}

// PairError is returned by Pair. Reason is one of the Reason* constants.
type PairError struct {
	Reason string
	Err    error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("pairing failed (%s): %v", e.Reason, e.Err)
}

func (e *PairError) Unwrap() error {
	return e.Err
}

// ReasonFor maps a connection-test error to a pairing reason. Only
// transport failures count as cannot_connect; unexpected statuses and
// undecodable payloads are reported as unknown.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, econext.ErrAuthRejected):
		return ReasonInvalidAuth
	case errors.Is(err, econext.ErrConnectionFailed):
		return ReasonCannotConnect
	case errors.Is(err, ErrAlreadyPaired):
		return ReasonAlreadyPaired
	default:
		return ReasonUnknown
	}
}

// Pair tests the controller at host:port and registers it under its UID.
// A UID that is already registered aborts with ErrAlreadyPaired.
func Pair(ctx context.Context, tester Tester, reg *Registry, host string, port int) (*Controller, error) {
	info, err := tester.TestConnection(ctx)
	if err != nil {
		return nil, &PairError{Reason: ReasonFor(err), Err: err}
	}

	exists, err := reg.Exists(ctx, info.UID)
	if err != nil {
		return nil, &PairError{Reason: ReasonUnknown, Err: err}
	}
	if exists {
		return nil, &PairError{Reason: ReasonAlreadyPaired, Err: fmt.Errorf("%w: %s", ErrAlreadyPaired, info.UID)}
	}

	c := &Controller{
		UID:        info.UID,
		Name:       info.Name,
		Host:       host,
		Port:       port,
		ParamCount: info.ParamCount,
	}
	if err := reg.Add(ctx, c); err != nil {
		return nil, &PairError{Reason: ReasonFor(err), Err: err}
	}
	return c, nil
}
